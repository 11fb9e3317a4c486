package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/miz-art/Micro-narrativesxHarms-June25/cmd/mainconfig"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/app/bootstrap"
	appconfig "github.com/miz-art/Micro-narrativesxHarms-June25/internal/config"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/session"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

const chatHelp = `commands:
  <text>                         answer the interviewer
  /consent                       give consent
  /scenarios                     retry scenario generation
  /feedback N thumbs|faces S [c] score scenario N
  /rate N LABEL                  judge scenario N (not_really, a_bit, pretty_good, ready_as_is)
  /try N                         generate another version of scenario N
  /select N                      choose scenario N
  /edit TEXT                     replace the chosen scenario
  /adapt TEXT                    ask for a rewrite
  /accept                        keep the proposed rewrite
  {"type":...}                   send a raw event envelope
  /help, /quit`

type chatService interface {
	Current(ctx context.Context, sessionID string) (narrative.View, error)
	Handle(ctx context.Context, sessionID string, ev narrative.Event) (narrative.View, error)
}

func newChatCmd() *cobra.Command {
	var (
		pid      string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an elicitation session in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := appconfig.Load()
			logger := logging.NewWithWriter(logLevel, "text", os.Stderr)

			var awsCfg *aws.Config
			if cfg.LLMProvider == "bedrock" || cfg.LLMFallbackProvider == "bedrock" {
				loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
				if err != nil {
					return fmt.Errorf("load AWS config: %w", err)
				}
				awsCfg = &loaded
			}
			client, closeLLM, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
			if err != nil {
				return err
			}
			defer closeLLM()

			// Local chats never reach the durable stores.
			sink := bootstrap.BuildPackageSink(&appconfig.Config{}, nil, nil, logger)
			svc, err := bootstrap.BuildNarrativeService(cfg, client, session.NewMemoryStore(), sink, nil, logger)
			if err != nil {
				return err
			}
			if pid == "" {
				pid = "local-" + uuid.NewString()[:8]
			}
			return runChat(ctx, svc, pid, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&pid, "pid", "", "Participant id (random when empty)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level for the session service")
	return cmd
}

func runChat(ctx context.Context, svc chatService, pid string, in io.Reader, out io.Writer) error {
	view, err := svc.Current(ctx, pid)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s\n", pid)
	for _, turn := range view.Messages {
		fmt.Fprintf(out, "%s: %s\n", turn.Role, turn.Text)
	}
	if view.ConsentText != "" {
		fmt.Fprintf(out, "\n%s\n(type /consent to continue, /help for commands)\n", view.ConsentText)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/help" {
			fmt.Fprintln(out, chatHelp)
			continue
		}
		ev, quit, err := parseLine(line)
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if ev == nil {
			continue
		}

		progressCtx := narrative.WithProgress(ctx, func(done, total int) {
			fmt.Fprintf(out, "  generating scenarios %d/%d\n", done, total)
		})
		view, err := svc.Handle(progressCtx, pid, ev)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if view.SessionID == "" {
				continue
			}
		}
		printView(out, view)
	}
}

// parseLine turns one input line into an event. A nil event with no error
// means there is nothing to send.
func parseLine(line string) (narrative.Event, bool, error) {
	switch {
	case line == "":
		return nil, false, nil
	case line == "/quit" || line == "/exit":
		return nil, true, nil
	case strings.HasPrefix(line, "{"):
		ev, err := narrative.DecodeEvent([]byte(line))
		return ev, false, err
	case !strings.HasPrefix(line, "/"):
		return narrative.UserAnswered{Text: line}, false, nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/consent":
		return narrative.ConsentGiven{}, false, nil
	case "/scenarios":
		return narrative.ScenariosRequested{}, false, nil
	case "/accept":
		return narrative.AdaptationAccepted{}, false, nil
	case "/edit":
		return narrative.ScenarioEdited{Text: rest}, false, nil
	case "/adapt":
		return narrative.AdaptationRequested{Instruction: rest}, false, nil
	case "/try", "/select":
		slot, err := parseSlot(rest)
		if err != nil {
			return nil, false, err
		}
		if cmd == "/try" {
			return narrative.TryAnother{Slot: slot}, false, nil
		}
		return narrative.ScenarioSelected{Slot: slot}, false, nil
	case "/rate":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return nil, false, fmt.Errorf("usage: /rate N LABEL")
		}
		slot, err := parseSlot(fields[0])
		if err != nil {
			return nil, false, err
		}
		rating, err := narrative.ParseRating(fields[1])
		if err != nil {
			return nil, false, err
		}
		return narrative.ScenarioRated{Slot: slot, Rating: rating}, false, nil
	case "/feedback":
		fields := strings.Fields(rest)
		if len(fields) < 3 {
			return nil, false, fmt.Errorf("usage: /feedback N thumbs|faces SCORE [comment]")
		}
		slot, err := parseSlot(fields[0])
		if err != nil {
			return nil, false, err
		}
		return narrative.FeedbackSubmitted{
			Slot:    slot,
			Kind:    narrative.FeedbackKind(fields[1]),
			Score:   fields[2],
			Comment: strings.Join(fields[3:], " "),
		}, false, nil
	default:
		return nil, false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}

func parseSlot(raw string) (narrative.Slot, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("slot must be 1, 2 or 3")
	}
	return narrative.Slot(n), nil
}

func printView(out io.Writer, view narrative.View) {
	if view.Reply != "" {
		fmt.Fprintf(out, "assistant: %s\n", view.Reply)
	}
	for _, notice := range view.Notices {
		fmt.Fprintf(out, "  * %s\n", notice)
	}
	if view.Warning != "" {
		fmt.Fprintf(out, "  ! %s\n", view.Warning)
	}
	if view.Final == nil {
		for _, sc := range view.Scenarios {
			fmt.Fprintf(out, "\n[%d] %s\n", sc.Slot, sc.Text)
			if sc.Rating != "" {
				fmt.Fprintf(out, "    rated: %s\n", sc.Rating)
			}
		}
	} else {
		fmt.Fprintf(out, "\nchosen (%s): %s\n", view.Final.Judgment, view.Final.Scenario)
		if view.Final.Proposal != "" {
			fmt.Fprintf(out, "proposed rewrite: %s\n(type /accept to keep it)\n", view.Final.Proposal)
		}
	}
	if view.CompletionCode != "" {
		fmt.Fprintf(out, "\ncompletion code: %s\n", view.CompletionCode)
	} else if view.Phase == narrative.PhaseReady && view.Persisted {
		fmt.Fprintln(out, "\nscenario saved, thank you")
	}
}
