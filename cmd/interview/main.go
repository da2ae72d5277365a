package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/chzyer/readline"
	log "github.com/echocat/slf4g"
	"github.com/echocat/slf4g/native"
	"github.com/echocat/slf4g/native/facade/value"
	"github.com/joho/godotenv"

	"github.com/amanullahtanweer/voice-interview/internal/api"
	"github.com/amanullahtanweer/voice-interview/internal/audio"
	"github.com/amanullahtanweer/voice-interview/internal/config"
	"github.com/amanullahtanweer/voice-interview/internal/session"
)

func main() {
	var configFile string
	var serverURL string

	lv := value.NewProvider(native.DefaultProvider)

	cmd := kingpin.New(os.Args[0], "Voice mock-interview client.")
	cmd.Flag("config", "Configuration file path.").
		Short('c').
		Default("config.yaml").
		StringVar(&configFile)
	cmd.Flag("server", "Interview service base URL, takes precedence over the config file.").
		StringVar(&serverURL)
	cmd.Flag("log.level", "Log level.").
		SetValue(lv.Level)
	cmd.Action(func(*kingpin.ParseContext) error {
		return run(configFile, serverURL)
	})

	kingpin.MustParse(cmd.Parse(os.Args[1:]))
}

func run(configFile, serverURL string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if serverURL != "" {
		if err := cfg.Merge(config.Config{Server: config.ServerConfig{BaseURL: serverURL}}); err != nil {
			return err
		}
	}

	client := api.New(cfg.Server.BaseURL, cfg.Timeout())

	opener := audio.NewMalgoOpener()
	defer opener.Close()
	recorder := audio.NewRecorder(opener, audio.CaptureConfig{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		MaxSeconds: cfg.Audio.MaxCaptureSeconds,
	})

	var player *audio.Player
	if cfg.Audio.Playback {
		player = audio.NewPlayer(client)
		defer player.Close()
	}

	opts := session.Options{Service: client}
	if player != nil {
		opts.Player = player
	}
	if cfg.Output.SaveRecords {
		opts.RecordDir = cfg.Output.Dir
	}
	machine := session.NewMachine(opts)

	log.With("server", cfg.Server.BaseURL).Info("Voice interview client ready.")

	rl, err := readline.New("interview> ")
	if err != nil {
		return fmt.Errorf("failed to open console: %w", err)
	}
	defer rl.Close()

	printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		command := strings.ToLower(fields[0])
		args := fields[1:]

		if command == "quit" || command == "exit" {
			return nil
		}
		dispatch(machine, recorder, player, command, args)
	}
}

func dispatch(machine *session.Machine, recorder *audio.Recorder, player *audio.Player, command string, args []string) {
	ctx := context.Background()

	switch command {
	case "help":
		printHelp()

	case "start":
		role := strings.Join(args, " ")
		if role == "" {
			fmt.Println("Usage: start <role>")
			return
		}
		if done := report(machine.Start(ctx, role)); done {
			snap := machine.Snapshot()
			fmt.Printf("\nQuestion: %s\n", snap.Session.Question)
			fmt.Println("Type 'record' to answer.")
		}

	case "record":
		if machine.Snapshot().Phase != session.PhaseAwaitingAnswer {
			fmt.Println("Nothing to answer right now.")
			return
		}
		if err := recorder.Start(); err != nil {
			fmt.Printf("Microphone error: %v\n", err)
			return
		}
		if recorder.State() == audio.CaptureRecording {
			fmt.Println("Recording... type 'stop' to finish and submit.")
		}

	case "stop":
		artifact, ok := recorder.Stop()
		if !ok {
			fmt.Println("Not recording.")
			return
		}
		if artifact.Empty() {
			fmt.Println("Nothing was recorded.")
			return
		}
		if artifact.Truncated {
			fmt.Println("Recording hit the length limit; submitting what was captured.")
		}
		fmt.Println("Submitting answer...")
		if done := report(machine.SubmitAnswer(ctx, artifact.WAV())); done {
			snap := machine.Snapshot()
			printEvaluation(snap)
			fmt.Println("Type 'next' for the next question or 'end' to finish.")
		}

	case "next":
		if done := report(machine.NextQuestion(ctx)); done {
			snap := machine.Snapshot()
			if snap.Session.Exhausted {
				fmt.Println("No more questions. Type 'end' to get your summary.")
				return
			}
			fmt.Printf("\nQuestion: %s\n", snap.Session.Question)
			fmt.Println("Type 'record' to answer.")
		}

	case "end":
		if done := report(machine.EndInterview(ctx)); done {
			snap := machine.Snapshot()
			printSummary(snap)
			if stats := machine.Metrics(); stats != nil {
				fmt.Println(stats.Summary())
			}
			fmt.Println("Type 'reset' to start over.")
		}

	case "status":
		printStatus(machine.Snapshot(), recorder.State())

	case "reset":
		if _, ok := recorder.Stop(); ok {
			fmt.Println("Discarded the recording in progress.")
		}
		if player != nil {
			player.Stop()
		}
		machine.Reset()
		fmt.Println("Session reset. Type 'start <role>' to begin a new interview.")

	default:
		fmt.Printf("Unknown command: %s (try 'help')\n", command)
	}
}

// report prints an operation error unless the call was ignored as a
// duplicate trigger. Returns true when the operation succeeded.
func report(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, session.ErrIgnored) {
		return false
	}
	fmt.Printf("Error: %v\n", err)
	return false
}

func printEvaluation(snap session.Snapshot) {
	eval := snap.Session.Evaluation
	if eval == nil {
		return
	}
	fmt.Printf("\nTranscript: %s\n", snap.Session.Transcript)
	fmt.Printf("Relevance:   %d/10\n", eval.Relevance)
	fmt.Printf("Clarity:     %d/10\n", eval.Clarity)
	fmt.Printf("Correctness: %d/10\n", eval.Correctness)
	fmt.Printf("Feedback: %s\n", eval.Feedback)
}

func printSummary(snap session.Snapshot) {
	summary := snap.Session.Summary
	if summary == nil {
		return
	}
	fmt.Printf("\nOverall: %s\n", summary.OverallFeedback)
	fmt.Printf("Strengths: %s\n", summary.Strengths)
	fmt.Printf("Improvements: %s\n\n", summary.Improvements)
}

func printStatus(snap session.Snapshot, capture audio.CaptureState) {
	fmt.Printf("Phase: %s\n", snap.Phase)
	fmt.Printf("Capture: %s\n", capture)
	if snap.Session.ID != "" {
		fmt.Printf("Interview: %s (%s)\n", snap.Session.ID, snap.Session.Role)
	}
	if snap.Session.Question != "" {
		fmt.Printf("Question: %s\n", snap.Session.Question)
	}
	if snap.Failure != nil {
		fmt.Printf("Last error: %s\n", snap.Failure.Reason)
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  start <role>  begin an interview for the given role")
	fmt.Println("  record        start recording your answer")
	fmt.Println("  stop          stop recording and submit the answer")
	fmt.Println("  next          advance to the next question")
	fmt.Println("  end           finish and fetch the summary")
	fmt.Println("  status        show the current session state")
	fmt.Println("  reset         abandon the session")
	fmt.Println("  quit          exit")
}
