/*
 * This file is part of Voxform (https://github.com/voxform/voxform).
 * Copyright (C) 2025 Voxform
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package session

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/voxform/voxform-hub/internal/events"
	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/questions"
	"github.com/voxform/voxform-hub/internal/speech"
)

func TestMain(m *testing.M) {
	if err := logging.Initialize(); err != nil {
		panic(err)
	}
	code := m.Run()
	logging.Close()
	os.Exit(code)
}

// fakeClock drives the engine's timers deterministically.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	// delays records every scheduled duration in order.
	delays []time.Duration
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	fn      func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

// Advance moves time forward and fires due timers in order. Callbacks run
// outside the clock lock so they can schedule new timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	for {
		t := c.popDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

func (c *fakeClock) popDue() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	bestIdx := -1
	for i, t := range c.timers {
		if t.stopped || t.when.After(c.now) {
			continue
		}
		if bestIdx < 0 || t.when.Before(c.timers[bestIdx].when) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil
	}
	t := c.timers[bestIdx]
	t.stopped = true
	c.timers = append(c.timers[:bestIdx], c.timers[bestIdx+1:]...)
	return t
}

type recordingSpeaker struct {
	mu         sync.Mutex
	utterances []string
	cancels    int
}

func (s *recordingSpeaker) Speak(text string, _ speech.SpeakOptions) error {
	s.mu.Lock()
	s.utterances = append(s.utterances, text)
	s.mu.Unlock()
	return nil
}

func (s *recordingSpeaker) Cancel() {
	s.mu.Lock()
	s.cancels++
	s.mu.Unlock()
}

func (s *recordingSpeaker) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.utterances) == 0 {
		return ""
	}
	return s.utterances[len(s.utterances)-1]
}

type fakeRecognizer struct {
	mu     sync.Mutex
	starts int
	stops  int
	lang   string
}

func (r *fakeRecognizer) Start() error {
	r.mu.Lock()
	r.starts++
	r.mu.Unlock()
	return nil
}

func (r *fakeRecognizer) Stop() error {
	r.mu.Lock()
	r.stops++
	r.mu.Unlock()
	return nil
}

func (r *fakeRecognizer) SetLanguage(code string) {
	r.mu.Lock()
	r.lang = code
	r.mu.Unlock()
}

func (r *fakeRecognizer) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// testCatalog builds a three-question mixed-type catalog.
func testCatalog(t *testing.T) *questions.Catalog {
	t.Helper()
	c, err := questions.NewCatalog([]questions.Question{
		{ID: "R1", TextEN: "Overall experience"},
		{ID: "Y1", TextEN: "Would you recommend us", Type: questions.TypeYesNo},
		{ID: "C1", TextEN: "Preferred channel", Type: questions.TypeMultipleChoice,
			Options: []questions.Option{
				{Value: "phone", LabelEN: "Phone"},
				{Value: "email", LabelEN: "Email"},
				{Value: "visit", LabelEN: "Branch visit"},
			}},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

type testSession struct {
	eng      *Engine
	clock    *fakeClock
	speaker  *recordingSpeaker
	rec      *fakeRecognizer
	mu       sync.Mutex
	outcomes []events.Outcome
}

func newTestSession(t *testing.T, catalog *questions.Catalog, cfg Config) *testSession {
	t.Helper()
	ts := &testSession{
		clock:   newFakeClock(),
		speaker: &recordingSpeaker{},
		rec:     &fakeRecognizer{},
	}
	ts.eng = NewEngine("test-session", catalog, ts.speaker, ts.rec, cfg)
	ts.eng.SetClock(ts.clock)
	ts.eng.OnEvent(func(ev *events.AnswerEvent) {
		ts.mu.Lock()
		ts.outcomes = append(ts.outcomes, ev.Outcome)
		ts.mu.Unlock()
	})
	return ts
}

func (ts *testSession) final(text string) {
	ts.eng.HandleEvent(speech.Event{Kind: speech.EventFinalTranscript, Text: text})
}

func (ts *testSession) lastOutcome() events.Outcome {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.outcomes) == 0 {
		return ""
	}
	return ts.outcomes[len(ts.outcomes)-1]
}

func TestEngine_FullAnswerFlow(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())

	if err := ts.eng.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if ts.eng.State() != StateAwaitingAnswer {
		t.Fatalf("State() = %q after Start, want %q", ts.eng.State(), StateAwaitingAnswer)
	}
	if ts.rec.startCount() != 1 {
		t.Errorf("recognizer starts = %d, want 1", ts.rec.startCount())
	}

	// First question fires after the start delay.
	ts.clock.Advance(300 * time.Millisecond)
	ts.eng.HandleEvent(speech.Event{Kind: speech.EventStarted})

	ts.clock.Advance(1 * time.Second)
	ts.final("4")
	if ts.lastOutcome() != events.OutcomeRecorded {
		t.Fatalf("outcome = %q after rating answer, want recorded", ts.lastOutcome())
	}
	if got, _ := ts.eng.Form().Selected("R1"); got != "4" {
		t.Errorf("Selected(R1) = %q, want 4", got)
	}
	if ts.eng.QuestionIndex() != 1 {
		t.Fatalf("QuestionIndex() = %d, want 1", ts.eng.QuestionIndex())
	}

	// Second question: yes/no.
	ts.clock.Advance(160 * time.Millisecond)
	ts.clock.Advance(2 * time.Second)
	ts.final("yes")
	if got, _ := ts.eng.Form().Selected("Y1"); got != "1" {
		t.Errorf("Selected(Y1) = %q, want 1", got)
	}

	// Third question: multiple choice by spoken label.
	ts.clock.Advance(160 * time.Millisecond)
	ts.clock.Advance(500 * time.Millisecond)
	ts.final("email please")
	if got, _ := ts.eng.Form().Selected("C1"); got != "email" {
		t.Errorf("Selected(C1) = %q, want email", got)
	}

	if ts.eng.State() != StateComplete {
		t.Fatalf("State() = %q after last answer, want %q", ts.eng.State(), StateComplete)
	}

	samples := ts.eng.LatencySamples()
	if len(samples) != 3 {
		t.Fatalf("LatencySamples() len = %d, want 3", len(samples))
	}
	if samples[0].QuestionID != "R1" || samples[0].Milliseconds != 1000 {
		t.Errorf("sample[0] = %+v, want R1/1000ms", samples[0])
	}

	// Completed session returns to idle after the idle delay.
	ts.clock.Advance(3 * time.Second)
	if ts.eng.State() != StateIdle {
		t.Errorf("State() = %q after idle delay, want %q", ts.eng.State(), StateIdle)
	}
}

func TestEngine_DuplicateFinalSuppressed(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	ts.final("4")
	if ts.eng.QuestionIndex() != 1 {
		t.Fatalf("QuestionIndex() = %d after first final, want 1", ts.eng.QuestionIndex())
	}

	// Immediate engine double-fire of the same final.
	ts.final("4")
	if ts.eng.QuestionIndex() != 1 {
		t.Errorf("QuestionIndex() = %d after duplicate, want 1", ts.eng.QuestionIndex())
	}

	// The suppressed final is still audited, it just never classifies
	if ts.lastOutcome() != events.OutcomeDuplicate {
		t.Errorf("outcome = %q after duplicate, want duplicate", ts.lastOutcome())
	}
	ts.mu.Lock()
	n := len(ts.outcomes)
	ts.mu.Unlock()
	if n != 2 {
		t.Errorf("emitted %d answer events, want 2 (recorded then duplicate)", n)
	}
}

func TestEngine_ConfirmationAccept(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	ts.final("excellent")
	if ts.eng.State() != StateAwaitingConfirmation {
		t.Fatalf("State() = %q after qualitative answer, want %q", ts.eng.State(), StateAwaitingConfirmation)
	}
	if ts.lastOutcome() != events.OutcomeConfirming {
		t.Errorf("outcome = %q, want confirming", ts.lastOutcome())
	}

	ts.final("yes")
	if ts.lastOutcome() != events.OutcomeRecorded {
		t.Fatalf("outcome = %q after confirmation, want recorded", ts.lastOutcome())
	}
	if got, _ := ts.eng.Form().Selected("R1"); got != "5" {
		t.Errorf("Selected(R1) = %q, want 5", got)
	}
	if ts.eng.QuestionIndex() != 1 {
		t.Errorf("QuestionIndex() = %d, want 1", ts.eng.QuestionIndex())
	}
}

func TestEngine_ConfirmationReject(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	ts.final("excellent")
	ts.final("no")

	if ts.eng.State() != StateAwaitingAnswer {
		t.Fatalf("State() = %q after rejection, want %q", ts.eng.State(), StateAwaitingAnswer)
	}
	if _, ok := ts.eng.Form().Selected("R1"); ok {
		t.Error("rejected answer must not be recorded")
	}
	if ts.eng.QuestionIndex() != 0 {
		t.Errorf("QuestionIndex() = %d after rejection, want 0", ts.eng.QuestionIndex())
	}
}

func TestEngine_ConfirmationReprompts(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	ts.final("excellent")
	ts.final("purple monkey")

	if ts.eng.State() != StateAwaitingConfirmation {
		t.Errorf("State() = %q, want still %q", ts.eng.State(), StateAwaitingConfirmation)
	}
	if ts.lastOutcome() != events.OutcomeUnrecognized {
		t.Errorf("outcome = %q, want unrecognized", ts.lastOutcome())
	}
}

func TestEngine_DirectRecordWithoutConfirmation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfirmLowConfidence = false
	ts := newTestSession(t, testCatalog(t), cfg)
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	ts.final("excellent")
	if ts.lastOutcome() != events.OutcomeRecorded {
		t.Fatalf("outcome = %q, want recorded when confirmation is disabled", ts.lastOutcome())
	}
	if got, _ := ts.eng.Form().Selected("R1"); got != "5" {
		t.Errorf("Selected(R1) = %q, want 5", got)
	}
}

func TestEngine_Commands(t *testing.T) {
	t.Run("UndoAtFirstQuestion", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("undo")
		if ts.eng.QuestionIndex() != 0 {
			t.Errorf("QuestionIndex() = %d, want 0", ts.eng.QuestionIndex())
		}
		if ts.lastOutcome() != events.OutcomeCommand {
			t.Errorf("outcome = %q, want command", ts.lastOutcome())
		}
	})

	t.Run("UndoStepsBack", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("4")
		ts.final("go back")
		if ts.eng.QuestionIndex() != 0 {
			t.Errorf("QuestionIndex() = %d after undo, want 0", ts.eng.QuestionIndex())
		}
	})

	t.Run("SkipAdvancesWithoutSample", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("skip")
		if ts.eng.QuestionIndex() != 1 {
			t.Errorf("QuestionIndex() = %d after skip, want 1", ts.eng.QuestionIndex())
		}
		if len(ts.eng.LatencySamples()) != 0 {
			t.Error("skip must not record a latency sample")
		}
		if _, ok := ts.eng.Form().Selected("R1"); ok {
			t.Error("skip must not record an answer")
		}
	})

	t.Run("SkipPastLastQuestionCompletes", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("skip")
		ts.final("skip this question")
		ts.final("skip it")
		if ts.eng.State() != StateComplete {
			t.Errorf("State() = %q after skipping everything, want %q", ts.eng.State(), StateComplete)
		}
	})

	t.Run("JumpToQuestion", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("change question 3")
		if ts.eng.QuestionIndex() != 2 {
			t.Errorf("QuestionIndex() = %d after jump, want 2", ts.eng.QuestionIndex())
		}
	})

	t.Run("JumpOutOfRange", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("change question 9")
		if ts.eng.QuestionIndex() != 0 {
			t.Errorf("QuestionIndex() = %d after invalid jump, want 0", ts.eng.QuestionIndex())
		}
		if ts.eng.State() != StateAwaitingAnswer {
			t.Errorf("State() = %q, want %q", ts.eng.State(), StateAwaitingAnswer)
		}
	})

	t.Run("StopReturnsToIdle", func(t *testing.T) {
		ts := newTestSession(t, testCatalog(t), DefaultConfig())
		ts.eng.Start()
		ts.clock.Advance(300 * time.Millisecond)

		ts.final("stop")
		if ts.eng.State() != StateIdle {
			t.Errorf("State() = %q after stop, want %q", ts.eng.State(), StateIdle)
		}
		if ts.speaker.cancels == 0 {
			t.Error("stop should cancel in-flight speech")
		}
	})
}

func TestEngine_CategoryNavigation(t *testing.T) {
	catalog, err := questions.NewCatalog([]questions.Question{
		{ID: "S1", TextEN: "Greeting", Category: "Service"},
		{ID: "S2", TextEN: "Resolution", Category: "Service"},
		{ID: "F1", TextEN: "Cleanliness", Category: "Facility"},
		{ID: "F2", TextEN: "Comfort", Category: "Facility"},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	ts := newTestSession(t, catalog, DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	ts.final("next category")
	if ts.eng.QuestionIndex() != 2 {
		t.Fatalf("QuestionIndex() = %d after next category, want 2", ts.eng.QuestionIndex())
	}
	if got := ts.eng.Progress(); got != "Facility: 1/2" {
		t.Errorf("Progress() = %q, want Facility: 1/2", got)
	}

	ts.final("previous category")
	if ts.eng.QuestionIndex() != 0 {
		t.Errorf("QuestionIndex() = %d after previous category, want 0", ts.eng.QuestionIndex())
	}

	// Past the last category the session completes. Let the duplicate window
	// lapse between repeats of the same phrase.
	ts.clock.Advance(6 * time.Second)
	ts.final("next category")
	ts.clock.Advance(6 * time.Second)
	ts.final("next category")
	if ts.eng.State() != StateComplete {
		t.Errorf("State() = %q, want %q", ts.eng.State(), StateComplete)
	}
}

func TestEngine_UnrecognizedInputReprompts(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)
	asked := ts.speaker.last()

	ts.final("banana sandwich")
	if ts.lastOutcome() != events.OutcomeUnrecognized {
		t.Fatalf("outcome = %q, want unrecognized", ts.lastOutcome())
	}
	if ts.eng.QuestionIndex() != 0 {
		t.Errorf("QuestionIndex() = %d, want 0", ts.eng.QuestionIndex())
	}

	// The question is re-asked after the reprompt delay.
	ts.clock.Advance(3 * time.Second)
	if ts.speaker.last() != asked {
		t.Errorf("re-ask = %q, want the original prompt %q", ts.speaker.last(), asked)
	}
}

func TestEngine_WakePhraseWhileIdle(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())

	ts.final("hello there")
	if ts.eng.State() != StateIdle {
		t.Fatalf("State() = %q after unrelated speech, want idle", ts.eng.State())
	}

	ts.final("start survey")
	if ts.eng.State() != StateAwaitingAnswer {
		t.Errorf("State() = %q after wake phrase, want %q", ts.eng.State(), StateAwaitingAnswer)
	}
}

func TestEngine_RestartBackoff(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)

	mark := len(ts.clock.delays)
	errEvent := speech.Event{Kind: speech.EventError, Code: "network"}
	for i := 0; i < 6; i++ {
		ts.eng.HandleEvent(errEvent)
	}

	got := ts.clock.delays[mark:]
	want := []time.Duration{
		640 * time.Millisecond,
		1024 * time.Millisecond,
		1638400 * time.Microsecond,
		2621440 * time.Microsecond,
		4 * time.Second,
		4 * time.Second,
	}
	if len(got) != len(want) {
		t.Fatalf("scheduled %d restarts, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("restart delay[%d] = %v, want %v", i, got[i], want[i])
		}
		if i > 0 && got[i] < got[i-1] {
			t.Errorf("restart delay[%d] = %v decreased from %v", i, got[i], got[i-1])
		}
	}

	// The pending restart fires and starts the recognizer again.
	before := ts.rec.startCount()
	ts.clock.Advance(4 * time.Second)
	if ts.rec.startCount() != before+1 {
		t.Errorf("recognizer starts = %d after restart fired, want %d", ts.rec.startCount(), before+1)
	}

	// A successful start resets the backoff to the base delay.
	ts.eng.HandleEvent(speech.Event{Kind: speech.EventStarted})
	ts.eng.HandleEvent(speech.Event{Kind: speech.EventEnded})
	if last := ts.clock.delays[len(ts.clock.delays)-1]; last != 400*time.Millisecond {
		t.Errorf("restart delay after clean end = %v, want 400ms", last)
	}
}

func TestEngine_StartWithoutRecognizer(t *testing.T) {
	eng := NewEngine("no-rec", testCatalog(t), &recordingSpeaker{}, nil, DefaultConfig())
	if err := eng.Start(); err == nil {
		t.Fatal("Start() error = nil with nil recognizer, want error")
	}
	if eng.State() != StateIdle {
		t.Errorf("State() = %q, want idle", eng.State())
	}
}

func TestEngine_StartTwiceIsNoop(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)
	ts.final("4")

	if err := ts.eng.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if ts.eng.QuestionIndex() != 1 {
		t.Errorf("QuestionIndex() = %d after redundant Start, want 1 (state preserved)", ts.eng.QuestionIndex())
	}
}

func TestEngine_Snapshot(t *testing.T) {
	ts := newTestSession(t, testCatalog(t), DefaultConfig())
	ts.eng.Start()
	ts.clock.Advance(300 * time.Millisecond)
	ts.clock.Advance(500 * time.Millisecond)
	ts.final("4")

	snap := ts.eng.Snapshot()
	if snap.ID != "test-session" {
		t.Errorf("Snapshot().ID = %q", snap.ID)
	}
	if snap.State != StateAwaitingAnswer || snap.QuestionIndex != 1 || snap.QuestionCount != 3 {
		t.Errorf("Snapshot() = %+v, want awaiting_answer at 1/3", snap)
	}
	if snap.Answered != 1 || snap.Selections["R1"] != "4" {
		t.Errorf("Snapshot() selections = %v, want R1=4", snap.Selections)
	}
	if snap.LatencyAvgMs != 500 {
		t.Errorf("Snapshot().LatencyAvgMs = %v, want 500", snap.LatencyAvgMs)
	}
	if snap.WeightedScore != 0.8 {
		t.Errorf("Snapshot().WeightedScore = %v, want 0.8 (4 of 5 on the only answered question)", snap.WeightedScore)
	}
	if got := snap.Progress; got != "Q 2/3" {
		t.Errorf("Snapshot().Progress = %q, want Q 2/3", got)
	}
}

func TestManager(t *testing.T) {
	m := NewManager(testCatalog(t), DefaultConfig())

	eng, err := m.Create("ar", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if eng.ID() == "" {
		t.Error("Create() produced empty session id")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	got, ok := m.Get(eng.ID())
	if !ok || got != eng {
		t.Errorf("Get(%q) = %v/%v, want the created engine", eng.ID(), got, ok)
	}

	if _, err := m.Create("fr", nil); err == nil {
		t.Error("Create(fr) error = nil, want unsupported language error")
	}

	if !m.Remove(eng.ID()) {
		t.Error("Remove() = false, want true")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after Remove, want 0", m.Len())
	}
	if m.Remove("missing") {
		t.Error("Remove(missing) = true, want false")
	}

	// StopAll stops every live session.
	e1, _ := m.Create("", nil)
	e1.Start()
	m.StopAll()
	if e1.State() != StateIdle {
		t.Errorf("State() = %q after StopAll, want idle", e1.State())
	}
}
