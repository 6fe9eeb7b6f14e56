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

// Package session implements the voice-answer state machine: ask question →
// listen → parse → record/confirm → advance, plus recognizer lifecycle
// management with restart backoff.
//
// One Engine owns the full run-time state of a voice-driven answering pass.
// There is no module-level state; independent sessions never share anything,
// which also keeps the machine drivable with synthetic recognizer events in
// tests.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/voxform/voxform-hub/internal/dedupe"
	"github.com/voxform/voxform-hub/internal/events"
	"github.com/voxform/voxform-hub/internal/form"
	"github.com/voxform/voxform-hub/internal/latency"
	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/parser"
	"github.com/voxform/voxform-hub/internal/questions"
	"github.com/voxform/voxform-hub/internal/speech"
	"github.com/voxform/voxform-hub/internal/transcript"
)

// State is the question-flow state of a session.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingAnswer       State = "awaiting_answer"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateComplete             State = "complete"
)

// SinkFunc receives tagged debug transcript lines ([system], [final],
// [partial], [error]). Observability only, never a functional dependency.
type SinkFunc func(tag, line string)

// EventFunc observes processed final transcripts. Called synchronously while
// the engine lock is held; observers must not call back into the engine.
type EventFunc func(*events.AnswerEvent)

// Engine drives one voice survey session. All mutation happens under a
// single mutex, so a final transcript is fully processed before the next
// event is handled, mirroring the run-to-completion semantics the flow was
// designed for.
type Engine struct {
	mu sync.Mutex

	id      string
	cfg     Config
	catalog *questions.Catalog

	state   State
	qIndex  int
	pending *parser.Answer

	sup  *dedupe.Suppressor
	lat  *latency.Tracker
	form *form.Model

	speaker    speech.Speaker
	recognizer speech.Recognizer
	clock      Clock

	listening bool
	backoff   time.Duration

	askTimer      Timer
	restartTimer  Timer
	completeTimer Timer

	sink    SinkFunc
	onEvent EventFunc
}

// NewEngine creates a session over the given catalog. speaker and recognizer
// are the external engine collaborators; a nil recognizer marks the platform
// as unsupported and Start will refuse to activate the session.
func NewEngine(id string, catalog *questions.Catalog, speaker speech.Speaker, recognizer speech.Recognizer, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		id:         id,
		cfg:        cfg,
		catalog:    catalog,
		state:      StateIdle,
		sup:        dedupe.New(cfg.EchoWindow, cfg.DedupWindow, dedupe.DefaultMaxEntries),
		lat:        latency.New(),
		form:       form.NewModel(),
		speaker:    speaker,
		recognizer: recognizer,
		clock:      realClock{},
		backoff:    cfg.RestartBackoffBase,
	}
}

// SetClock replaces the engine clock. Call before Start; used by tests.
func (e *Engine) SetClock(c Clock) { e.clock = c }

// SetSink registers the debug transcript sink.
func (e *Engine) SetSink(fn SinkFunc) {
	e.mu.Lock()
	e.sink = fn
	e.mu.Unlock()
}

// OnEvent registers the answer event observer.
func (e *Engine) OnEvent(fn EventFunc) {
	e.mu.Lock()
	e.onEvent = fn
	e.mu.Unlock()
}

// ID returns the session id.
func (e *Engine) ID() string { return e.id }

// Form returns the form model answers are recorded into.
func (e *Engine) Form() *form.Model { return e.form }

// Start activates the session at question 0: clears latency samples,
// announces the start message, asks the first question after a short delay
// and starts the recognizer. Starting an active session is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	if e.recognizer == nil {
		return fmt.Errorf("speech recognition is not available on this platform")
	}
	if e.active() {
		return nil
	}

	e.state = StateAwaitingAnswer
	e.qIndex = 0
	e.pending = nil
	e.lat.Reset()
	e.sup.Reset()
	e.backoff = e.cfg.RestartBackoffBase
	e.stopTimer(&e.completeTimer)

	e.emitSink("system", "session started")
	logging.Sugar.Infow("🎤 Voice session started", "session_id", e.id, "questions", e.catalog.Len())

	e.speak(e.msg("Starting voice mode.", "بدء الوضع الصوتي."), true)
	e.scheduleAsk(e.cfg.StartAskDelay, true)
	e.startRecognizerLocked()
	return nil
}

// Stop deactivates the session immediately: cancels any scheduled restart
// and in-flight speech, stops the recognizer and returns to idle. Stopping
// an idle session is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.state == StateIdle {
		return
	}
	e.state = StateIdle
	e.pending = nil
	e.lat.Cancel()
	e.stopTimer(&e.askTimer)
	e.stopTimer(&e.restartTimer)
	e.stopTimer(&e.completeTimer)
	if e.speaker != nil {
		e.speaker.Cancel()
	}
	e.stopRecognizerLocked()
	e.emitSink("system", "session stopped")
	logging.Sugar.Infow("🛑 Voice session stopped", "session_id", e.id)
}

// HandleEvent feeds one recognizer event into the state machine.
func (e *Engine) HandleEvent(ev speech.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Kind {
	case speech.EventStarted:
		e.listening = true
		e.backoff = e.cfg.RestartBackoffBase
		e.emitSink("system", "recognition started")

	case speech.EventEnded:
		e.listening = false
		e.emitSink("system", "recognition ended")
		if e.active() {
			e.scheduleRestart(false)
		}

	case speech.EventError:
		e.emitSink("error", ev.Code)
		logging.Sugar.Warnw("⚠️ Recognition error", "session_id", e.id, "code", ev.Code)
		if e.active() {
			e.scheduleRestart(true)
		}

	case speech.EventPartialTranscript:
		e.emitSink("partial", ev.Text)

	case speech.EventFinalTranscript:
		e.handleFinal(ev.Text)
	}
}

// handleFinal is the main transition: dedup, normalize, classify, act.
func (e *Engine) handleFinal(raw string) {
	text := transcript.Normalize(raw)
	if text == "" {
		return
	}

	if !e.active() {
		if parser.IsWake(text) {
			_ = e.startLocked()
		}
		return
	}

	now := e.clock.Now()

	ev := events.NewAnswerEvent(e.id, text)
	ev.Language = e.cfg.Language
	if q := e.current(); q != nil {
		ev.QuestionID = q.ID
	}

	// Suppressed finals still land in the audit trail
	if e.sup.IsDuplicate(text, now) {
		e.emitSink("final", text+" (duplicate)")
		ev.Outcome = events.OutcomeDuplicate
		e.emitEvent(ev)
		return
	}
	e.sup.RegisterFinal(text, now)
	e.emitSink("final", text)

	if cmd, ok := parser.ParseCommand(text); ok {
		ev.Outcome = events.OutcomeCommand
		ev.Command = string(cmd.Kind)
		e.emitEvent(ev)
		e.applyCommand(cmd)
		return
	}

	if e.state == StateAwaitingConfirmation {
		e.handleConfirmation(text, ev)
		return
	}

	q := e.current()
	if q == nil {
		return
	}

	if parsed, ok := parser.ParseAnswer(text, q); ok {
		ev.AnswerKind = string(parsed.Answer.Kind)
		ev.Value = parsed.Answer.Value
		if !parsed.Confident && e.cfg.ConfirmLowConfidence {
			ans := parsed.Answer
			e.pending = &ans
			e.state = StateAwaitingConfirmation
			ev.Outcome = events.OutcomeConfirming
			e.emitEvent(ev)
			e.speak(e.confirmPrompt(ans), true)
			return
		}
		e.recordAnswer(q, parsed.Answer, ev)
		return
	}

	ev.Outcome = events.OutcomeUnrecognized
	e.emitEvent(ev)
	e.speak(e.guidance(q), false)
	e.scheduleAsk(e.cfg.RepromptDelay, true)
}

// handleConfirmation resolves the confirmation sub-dialog. Anything that is
// neither yes nor no re-prompts without changing the question index — the
// dialog re-asks, it never loops silently or crashes.
func (e *Engine) handleConfirmation(text string, ev *events.AnswerEvent) {
	yn, ok := parser.ParseAnswer(text, &questions.Question{Type: questions.TypeYesNo})
	if ok && yn.Answer.Kind == parser.AnswerYes && e.pending != nil {
		pending := *e.pending
		e.pending = nil
		e.state = StateAwaitingAnswer
		ev.AnswerKind = string(pending.Kind)
		ev.Value = pending.Value
		if q := e.current(); q != nil {
			e.recordAnswer(q, pending, ev)
		}
		return
	}
	if ok && yn.Answer.Kind == parser.AnswerNo {
		e.pending = nil
		e.state = StateAwaitingAnswer
		ev.Outcome = events.OutcomeCommand
		ev.Command = "discard_pending"
		e.emitEvent(ev)
		e.askCurrent(true)
		return
	}

	ev.Outcome = events.OutcomeUnrecognized
	e.emitEvent(ev)
	e.speak(e.msg("Did not catch. Yes or no?", "لم أفهم. نعم أو لا."), false)
}

// recordAnswer applies the answer to the form, logs the latency sample and
// advances the cursor, completing the session after the last question.
func (e *Engine) recordAnswer(q *questions.Question, ans parser.Answer, ev *events.AnswerEvent) {
	if !e.form.Record(q, ans) {
		ev.Outcome = events.OutcomeRejected
		ev.ErrorMessage = "no matching form option"
		e.emitEvent(ev)
		logging.Sugar.Warnw("⚠️ Answer rejected, no matching option",
			"session_id", e.id, "question_id", q.ID, "kind", ans.Kind, "value", ans.Value)
		e.speak(e.msg("Could not select that answer.", "تعذر اختيار هذه الإجابة."), false)
		e.scheduleAsk(e.cfg.RepromptDelay, true)
		return
	}

	ms := e.lat.StopAndRecord(q.ID, e.clock.Now())
	ev.Outcome = events.OutcomeRecorded
	ev.LatencyMs = ms
	e.emitEvent(ev)

	e.speak(e.msg(fmt.Sprintf("Recorded %s.", answerLabel(ans, e.cfg.Language)),
		fmt.Sprintf("سجلت %s.", answerLabel(ans, e.cfg.Language))), false)

	e.qIndex++
	if e.qIndex < e.catalog.Len() {
		e.scheduleAsk(e.cfg.NextQuestionDelay, false)
	} else {
		e.completeLocked()
	}
}

// applyCommand executes a navigation command.
func (e *Engine) applyCommand(cmd parser.Command) {
	switch cmd.Kind {
	case parser.CmdRepeat:
		e.askCurrent(true)

	case parser.CmdUndo:
		if e.qIndex > 0 {
			e.qIndex--
			e.speak(e.msg(fmt.Sprintf("Undone. Question %d.", e.qIndex+1),
				fmt.Sprintf("تم التراجع. سؤال %d.", e.qIndex+1)), true)
		} else {
			e.speak(e.msg("Nothing to undo.", "لا يوجد شيء للتراجع."), true)
		}
		e.askCurrent(false)

	case parser.CmdSkip:
		e.lat.Cancel()
		e.qIndex++
		if e.qIndex < e.catalog.Len() {
			e.askCurrent(true)
		} else {
			e.completeLocked()
		}

	case parser.CmdJump:
		if cmd.Index >= 0 && cmd.Index < e.catalog.Len() {
			e.qIndex = cmd.Index
			e.askCurrent(true)
		} else {
			e.speak(e.msg("Invalid question number.", "رقم سؤال غير صالح."), true)
			e.askCurrent(false)
		}

	case parser.CmdNextCategory:
		if i, ok := e.categoryStart(1); ok {
			e.qIndex = i
			e.askCurrent(true)
		} else {
			e.completeLocked()
		}

	case parser.CmdPreviousCategory:
		if i, ok := e.categoryStart(-1); ok {
			e.qIndex = i
		} else {
			e.qIndex = 0
		}
		e.askCurrent(true)

	case parser.CmdStop:
		e.stopLocked()

	case parser.CmdHelp:
		e.speak(e.msg(
			"You can say a number, yes or no, repeat, undo, skip, change question followed by a number, or stop.",
			"يمكنك قول رقم، نعم أو لا، أعد، تراجع، تخطي، سؤال مع رقم، أو توقف."), true)
		e.scheduleAsk(e.cfg.RepromptDelay, true)

	case parser.CmdStatus:
		e.speak(e.msg(
			fmt.Sprintf("Question %d of %d, %d answered.", e.qIndex+1, e.catalog.Len(), e.form.Answered()),
			fmt.Sprintf("سؤال %d من %d، تمت الإجابة على %d.", e.qIndex+1, e.catalog.Len(), e.form.Answered())), true)
		e.scheduleAsk(e.cfg.RepromptDelay, true)
	}
}

// completeLocked finishes the run and schedules the return to idle.
func (e *Engine) completeLocked() {
	e.state = StateComplete
	e.pending = nil
	e.lat.Cancel()
	e.stopTimer(&e.askTimer)
	e.speak(e.msg("All scores captured. Review and submit.", "اكتملت جميع الدرجات. راجع ثم أرسل."), false)
	e.emitSink("system", "session complete")
	logging.Sugar.Infow("✅ Voice session complete",
		"session_id", e.id, "answered", e.form.Answered(), "latency_samples", e.lat.Len())

	e.completeTimer = e.clock.AfterFunc(e.cfg.CompleteIdleDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.state != StateComplete {
			return
		}
		e.state = StateIdle
		e.stopRecognizerLocked()
		e.emitSink("system", "session idle")
	})
}

// askCurrent announces the current question and starts its latency timer.
func (e *Engine) askCurrent(force bool) {
	if !e.active() {
		return
	}
	e.pending = nil
	e.state = StateAwaitingAnswer

	q := e.current()
	if q == nil {
		e.completeLocked()
		return
	}

	prompt := fmt.Sprintf("%s %d. %s. %s",
		e.msg("Question", "السؤال"), e.qIndex+1, q.Text(e.cfg.Language), e.guidance(q))
	e.lat.StartTimer(e.clock.Now())
	e.speak(prompt, force)
	e.emitSink("system", "asking "+q.ID+" ("+e.progressLocked()+")")
}

func (e *Engine) scheduleAsk(d time.Duration, force bool) {
	e.stopTimer(&e.askTimer)
	e.askTimer = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.askCurrent(force)
	})
}

// scheduleRestart queues a recognizer restart. Errors grow the delay by the
// backoff factor up to the cap; a clean end restarts at the base delay.
func (e *Engine) scheduleRestart(isError bool) {
	e.stopTimer(&e.restartTimer)
	if isError {
		e.backoff = time.Duration(float64(e.backoff) * e.cfg.RestartBackoffFactor)
		if e.backoff > e.cfg.RestartBackoffMax {
			e.backoff = e.cfg.RestartBackoffMax
		}
	} else {
		e.backoff = e.cfg.RestartBackoffBase
	}
	e.restartTimer = e.clock.AfterFunc(e.backoff, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.active() {
			e.startRecognizerLocked()
		}
	})
}

// startRecognizerLocked starts the engine unless it is already listening.
// The explicit guard replaces the try/catch-around-start idiom: control flow
// stays visible instead of exception-suppressed.
func (e *Engine) startRecognizerLocked() {
	if e.listening || e.recognizer == nil {
		return
	}
	e.recognizer.SetLanguage(e.cfg.RecognizerLanguage())
	if err := e.recognizer.Start(); err != nil {
		logging.Sugar.Warnw("⚠️ Recognizer start failed", "session_id", e.id, "error", err)
	}
}

func (e *Engine) stopRecognizerLocked() {
	if e.recognizer == nil {
		return
	}
	if err := e.recognizer.Stop(); err != nil {
		logging.Sugar.Debugw("Recognizer stop failed", "session_id", e.id, "error", err)
	}
	e.listening = false
}

// State returns the current question-flow state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// QuestionIndex returns the 0-based current question index.
func (e *Engine) QuestionIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.qIndex
}

// Progress renders the visible progress indicator: "Q i/N", or
// "<category>: i/N" when the catalog is category-grouped.
func (e *Engine) Progress() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progressLocked()
}

func (e *Engine) progressLocked() string {
	if e.state == StateIdle {
		return ""
	}
	n := e.catalog.Len()
	i := e.qIndex + 1
	if i > n {
		i = n
	}
	if len(e.catalog.Categories()) > 1 {
		if cat, pos, ok := e.catalog.CategoryOf(minInt(e.qIndex, n-1)); ok {
			return fmt.Sprintf("%s: %d/%d", cat.Name, pos+1, len(cat.Questions))
		}
	}
	return fmt.Sprintf("Q %d/%d", i, n)
}

// Snapshot is a point-in-time view of the session for the HTTP API.
type Snapshot struct {
	ID             string            `json:"id"`
	State          State             `json:"state"`
	Language       string            `json:"language"`
	QuestionIndex  int               `json:"question_index"`
	QuestionCount  int               `json:"question_count"`
	Progress       string            `json:"progress"`
	Answered       int               `json:"answered"`
	Selections     map[string]string `json:"selections"`
	WeightedScore  float64           `json:"weighted_score"`
	LatencyAvgMs   float64           `json:"latency_avg_ms"`
	LatencySamples []latency.Sample  `json:"latency_samples"`
}

// Snapshot returns the session view. Latency samples are capped to the most
// recent 25, matching the submission payload contract.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	selections := e.form.Snapshot()
	score, _ := e.catalog.WeightedScore(selections)
	return Snapshot{
		ID:             e.id,
		State:          e.state,
		Language:       e.cfg.Language,
		QuestionIndex:  e.qIndex,
		QuestionCount:  e.catalog.Len(),
		Progress:       e.progressLocked(),
		Answered:       e.form.Answered(),
		Selections:     selections,
		WeightedScore:  score,
		LatencyAvgMs:   e.lat.Average(),
		LatencySamples: e.lat.Export(),
	}
}

// LatencySamples returns all recorded samples.
func (e *Engine) LatencySamples() []latency.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lat.Samples()
}

// ExportLatency returns the capped sample list for the submission payload.
func (e *Engine) ExportLatency() []latency.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lat.Export()
}

// Helpers

func (e *Engine) active() bool {
	return e.state == StateAwaitingAnswer || e.state == StateAwaitingConfirmation
}

func (e *Engine) current() *questions.Question {
	q, ok := e.catalog.At(e.qIndex)
	if !ok {
		return nil
	}
	return q
}

// categoryStart returns the global index of the first question of the
// category `dir` steps away from the current one.
func (e *Engine) categoryStart(dir int) (int, bool) {
	cats := e.catalog.Categories()
	cur, _, ok := e.catalog.CategoryOf(minInt(e.qIndex, e.catalog.Len()-1))
	if !ok {
		return 0, false
	}
	curIdx := 0
	for i, c := range cats {
		if c.Name == cur.Name {
			curIdx = i
			break
		}
	}
	target := curIdx + dir
	if target < 0 || target >= len(cats) {
		return 0, false
	}
	return e.globalIndexOf(cats[target].Questions[0].ID), true
}

func (e *Engine) globalIndexOf(id string) int {
	for i, q := range e.catalog.Questions() {
		if q.ID == id {
			return i
		}
	}
	return 0
}

func (e *Engine) guidance(q *questions.Question) string {
	switch q.Type {
	case questions.TypeYesNo:
		return e.msg("Say yes or no.", "قل نعم أو لا.")
	case questions.TypeMultipleChoice:
		return e.msg(fmt.Sprintf("Say a number from 1 to %d.", len(q.Options)),
			fmt.Sprintf("قل رقم من 1 إلى %d.", len(q.Options)))
	default:
		return e.msg("Say a number from 1 to 5.", "قل رقم من 1 إلى 5.")
	}
}

func (e *Engine) confirmPrompt(ans parser.Answer) string {
	label := answerLabel(ans, e.cfg.Language)
	return e.msg(fmt.Sprintf("You said %s. Say yes or no.", label),
		fmt.Sprintf("قلت %s؟ قل نعم أو لا.", label))
}

func (e *Engine) msg(en, ar string) string {
	if e.cfg.Language == "ar" {
		return ar
	}
	return en
}

func (e *Engine) speak(text string, force bool) {
	if e.speaker == nil {
		return
	}
	err := e.speaker.Speak(text, speech.SpeakOptions{
		Force: force,
		Rate:  e.cfg.SpeechRate,
		Lang:  e.cfg.RecognizerLanguage(),
	})
	if err != nil {
		logging.Sugar.Debugw("TTS failed", "session_id", e.id, "error", err)
	}
}

func (e *Engine) emitSink(tag, line string) {
	if e.sink != nil {
		e.sink(tag, line)
	}
}

func (e *Engine) emitEvent(ev *events.AnswerEvent) {
	if e.onEvent != nil {
		e.onEvent(ev)
	}
}

func (e *Engine) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func answerLabel(ans parser.Answer, lang string) string {
	switch ans.Kind {
	case parser.AnswerYes:
		if lang == "ar" {
			return "نعم"
		}
		return "yes"
	case parser.AnswerNo:
		if lang == "ar" {
			return "لا"
		}
		return "no"
	default:
		return fmt.Sprintf("%d", ans.Value)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
