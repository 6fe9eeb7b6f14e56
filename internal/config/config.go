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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the Voxform hub
type Config struct {
	Server    ServerConfig
	Voice     VoiceConfig
	Questions QuestionsConfig
	Database  DatabaseConfig
	NATS      NATSConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// VoiceConfig holds the session engine tuning parameters
type VoiceConfig struct {
	Language             string        // Default session language: "en" or "ar"
	EchoWindow           time.Duration // Immediate-echo duplicate window
	DedupWindow          time.Duration // Rolling duplicate window
	StartAskDelay        time.Duration // Delay before the first question
	NextQuestionDelay    time.Duration // Delay between recording and the next question
	RepromptDelay        time.Duration // Delay before re-asking after an unrecognized answer
	CompleteIdleDelay    time.Duration // Delay before a completed session goes idle
	RestartBackoffBase   time.Duration // Recognizer restart backoff base
	RestartBackoffFactor float64       // Backoff growth per consecutive error
	RestartBackoffMax    time.Duration // Backoff cap
	SpeechRate           float32       // Speech synthesis rate (1.0 = normal)
	ConfirmLowConfidence bool          // Confirm ambiguous parses before recording
}

// QuestionsConfig holds the question set source
type QuestionsConfig struct {
	Path string // JSON question set; empty uses the built-in set
}

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("VOXFORM_HOST", "0.0.0.0"),
			Port:         getEnvInt("VOXFORM_PORT", 8080),
			ReadTimeout:  getEnvDuration("VOXFORM_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("VOXFORM_WRITE_TIMEOUT", 30*time.Second),
		},
		Voice: VoiceConfig{
			Language:             getEnvString("VOICE_LANGUAGE", "en"),
			EchoWindow:           getEnvDuration("VOICE_ECHO_WINDOW", 2*time.Second),
			DedupWindow:          getEnvDuration("VOICE_DEDUP_WINDOW", 5*time.Second),
			StartAskDelay:        getEnvDuration("VOICE_START_ASK_DELAY", 300*time.Millisecond),
			NextQuestionDelay:    getEnvDuration("VOICE_NEXT_QUESTION_DELAY", 160*time.Millisecond),
			RepromptDelay:        getEnvDuration("VOICE_REPROMPT_DELAY", 3*time.Second),
			CompleteIdleDelay:    getEnvDuration("VOICE_COMPLETE_IDLE_DELAY", 3*time.Second),
			RestartBackoffBase:   getEnvDuration("VOICE_RESTART_BACKOFF_BASE", 400*time.Millisecond),
			RestartBackoffFactor: getEnvFloat64("VOICE_RESTART_BACKOFF_FACTOR", 1.6),
			RestartBackoffMax:    getEnvDuration("VOICE_RESTART_BACKOFF_MAX", 4*time.Second),
			SpeechRate:           getEnvFloat32("VOICE_SPEECH_RATE", 1.0),
			ConfirmLowConfidence: getEnvBool("VOICE_CONFIRM_LOW_CONFIDENCE", true),
		},
		Questions: QuestionsConfig{
			Path: getEnvString("QUESTIONS_PATH", ""),
		},
		Database: DatabaseConfig{
			Path: getEnvString("DB_PATH", "./data/voxform-hub.db"),
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "voxform.survey"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Voice.Language != "en" && c.Voice.Language != "ar" {
		return fmt.Errorf("unsupported voice language: %q", c.Voice.Language)
	}

	if c.Voice.RestartBackoffFactor <= 1 {
		return fmt.Errorf("restart backoff factor must be greater than 1: %v", c.Voice.RestartBackoffFactor)
	}

	if c.Voice.RestartBackoffBase <= 0 {
		return fmt.Errorf("restart backoff base must be positive: %s", c.Voice.RestartBackoffBase)
	}

	if c.Voice.RestartBackoffBase > c.Voice.RestartBackoffMax {
		return fmt.Errorf("restart backoff base %s exceeds max %s",
			c.Voice.RestartBackoffBase, c.Voice.RestartBackoffMax)
	}

	if c.Voice.SpeechRate <= 0 {
		return fmt.Errorf("speech rate must be positive: %v", c.Voice.SpeechRate)
	}

	if c.Voice.DedupWindow < c.Voice.EchoWindow {
		return fmt.Errorf("dedup window %s must not be shorter than echo window %s",
			c.Voice.DedupWindow, c.Voice.EchoWindow)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("NATS URL must be provided when NATS is enabled")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
