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

// voxform-cli runs a survey session on the terminal. Each line typed is fed
// to the session as a final transcript, so the whole voice flow can be
// exercised without a microphone: answers, commands, wake phrases.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/questions"
	"github.com/voxform/voxform-hub/internal/session"
	"github.com/voxform/voxform-hub/internal/speech"
)

// consoleSpeaker prints announcements instead of synthesizing audio.
type consoleSpeaker struct{}

func (consoleSpeaker) Speak(text string, _ speech.SpeakOptions) error {
	fmt.Printf("🔊 %s\n", text)
	return nil
}

func (consoleSpeaker) Cancel() {}

func main() {
	var (
		lang     = flag.String("lang", "en", "Session language: en or ar")
		qPath    = flag.String("questions", "", "Path to a question set JSON file (built-in set if empty)")
		verbose  = flag.Bool("verbose", false, "Print session trace lines")
		startNow = flag.Bool("start", true, "Start the session immediately (otherwise say a wake phrase)")
	)
	flag.Parse()

	// Engine logging goes to the structured logger; without this the
	// no-op defaults keep the console clean.
	if *verbose {
		if err := logging.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
			os.Exit(1)
		}
		defer logging.Close()
	}

	catalog, err := loadCatalog(*qPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load questions: %v\n", err)
		os.Exit(1)
	}

	cfg := session.DefaultConfig()
	cfg.Language = *lang

	eng := session.NewEngine("console", catalog, consoleSpeaker{}, speech.NopRecognizer{}, cfg)
	if *verbose {
		eng.SetSink(func(tag, line string) {
			fmt.Printf("  [%s] %s\n", tag, line)
		})
	}

	if *startNow {
		if err := eng.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start session: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("Say a wake phrase to begin (e.g. \"start survey\").")
	}

	fmt.Println("Type answers and commands; /state shows the session, /quit exits.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			eng.Stop()
			return
		case "/state":
			printSnapshot(eng)
			continue
		}

		eng.HandleEvent(speech.Event{Kind: speech.EventFinalTranscript, Text: line})

		if eng.State() == session.StateComplete {
			printSnapshot(eng)
		}
	}

	eng.Stop()
}

func loadCatalog(path string) (*questions.Catalog, error) {
	if path == "" {
		return questions.Default(), nil
	}
	return questions.LoadFile(path)
}

func printSnapshot(eng *session.Engine) {
	data, err := json.MarshalIndent(eng.Snapshot(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode snapshot: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
