package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"interviewcoach/internal/api"
	"interviewcoach/internal/audio"
	"interviewcoach/internal/auth"
	"interviewcoach/internal/config"
	"interviewcoach/internal/database"
	"interviewcoach/internal/logger"
	"interviewcoach/internal/models"
	"interviewcoach/internal/repository"
	"interviewcoach/internal/session"
	"interviewcoach/internal/validation"
)

const (
	sessionCookieName  = "jwt"
	apiShutdownTimeout = 5 * time.Second
)

func main() {
	// Load .env if present; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("failed to open history database", zap.Error(err))
	}
	defer db.Close()

	client, err := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	if err != nil {
		log.Fatal("failed to create backend client", zap.Error(err))
	}

	controller := session.NewController(client, log)
	defer controller.Close()

	recorder := audio.NewFFmpegRecorder(cfg, log)
	capture := audio.NewCapture(recorder, client, controller, cfg.MinVoiceSize, log)

	history := repository.NewHistoryRepository(db)

	app := &app{
		client:     client,
		controller: controller,
		capture:    capture,
		history:    history,
		logger:     log,
		out:        os.Stdout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// End the session cleanly on Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	app.run(ctx, bufio.NewScanner(os.Stdin))
}

// app holds the wired components behind the command loop
type app struct {
	client     *api.Client
	controller *session.Controller
	capture    *audio.Capture
	history    *repository.HistoryRepository
	logger     *zap.Logger
	out        *os.File
}

func (a *app) run(ctx context.Context, in *bufio.Scanner) {
	a.printf("Interview practice. Type 'help' for commands.\n")

	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			lines <- in.Text()
		}
	}()

	for {
		a.printPrompt()
		select {
		case <-ctx.Done():
			a.shutdown()
			return
		case line, ok := <-lines:
			if !ok {
				a.shutdown()
				return
			}
			if a.dispatch(ctx, line) {
				return
			}
		}
	}
}

// dispatch handles one command line; returns true when the loop should exit
func (a *app) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		a.printHelp()
	case "login":
		a.cmdLogin(ctx, args)
	case "logout":
		a.cmdLogout(ctx)
	case "start":
		a.cmdStart(ctx, args)
	case "answer":
		a.cmdAnswer(strings.TrimSpace(strings.TrimPrefix(line, "answer")))
	case "record":
		a.cmdRecord(ctx)
	case "stop":
		a.cmdStopRecording(ctx)
	case "cancel":
		a.cmdCancelRecording()
	case "submit":
		a.cmdSubmit(ctx)
	case "retry":
		a.cmdRetry(ctx)
	case "status":
		a.printStatus()
	case "end":
		a.cmdEnd(ctx)
	case "history":
		a.cmdHistory(args)
	case "show":
		a.cmdShow(args)
	case "quit", "exit":
		a.shutdown()
		return true
	default:
		a.printf("Unknown command %q. Type 'help' for commands.\n", cmd)
	}
	return false
}

func (a *app) printHelp() {
	a.printf(`Commands:
  login <email> <password>   authenticate with the backend
  logout                     clear the backend session
  start <difficulty> <topic> begin a session (Easy, Medium or Hard)
  answer <text>              type an answer for the current question
  record                     start recording a voice answer
  stop                       stop recording and evaluate it
  cancel                     discard the current recording
  submit                     submit the answer and fetch the next question
  retry                      retry fetching the next question
  status                     show the current question and timer
  end                        finish the session and show the summary
  history [n]                list recent finished sessions
  show <id>                  show a stored session in full
  quit                       exit
`)
}

func (a *app) cmdLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		a.printf("Usage: login <email> <password>\n")
		return
	}
	if err := validation.ValidateEmail(args[0]); err != nil {
		a.printf("%v\n", err)
		return
	}
	if err := a.client.Login(ctx, args[0], args[1]); err != nil {
		a.printf("Login failed: %v\n", err)
		return
	}
	a.printf("Logged in.\n")
}

func (a *app) cmdLogout(ctx context.Context) {
	if err := a.client.Logout(ctx); err != nil {
		a.printf("Logout failed: %v\n", err)
		return
	}
	a.printf("Logged out.\n")
}

func (a *app) cmdStart(ctx context.Context, args []string) {
	if len(args) < 2 {
		a.printf("Usage: start <difficulty> <topic>\n")
		return
	}
	if a.sessionExpired() {
		a.printf("Your login has expired; please 'login' again.\n")
		return
	}

	difficulty := models.Difficulty(args[0])
	topic := strings.Join(args[1:], " ")

	if err := a.controller.Start(ctx, topic, difficulty); err != nil {
		a.printf("Could not start session: %v\n", err)
		return
	}
	a.printQuestion()
}

// sessionExpired checks the backend auth cookie without a network call
func (a *app) sessionExpired() bool {
	raw := a.client.SessionCookie(sessionCookieName)
	if raw == "" {
		// No cookie at all: the backend may allow anonymous sessions, so
		// let the request decide.
		return false
	}
	return auth.IsExpired(raw, time.Now())
}

func (a *app) cmdAnswer(text string) {
	if err := a.controller.SetAnswerText(text); err != nil {
		a.printf("Cannot set answer now: %v\n", err)
		return
	}
	a.printf("Answer noted (%d characters). 'submit' when ready.\n", len(text))
}

func (a *app) cmdRecord(ctx context.Context) {
	if err := a.capture.StartRecording(ctx); err != nil {
		a.printf("Could not start recording: %v\n", err)
		return
	}
	a.printf("Recording... type 'stop' to finish or 'cancel' to discard.\n")
}

func (a *app) cmdStopRecording(ctx context.Context) {
	eval, err := a.capture.StopAndEvaluate(ctx)
	if err != nil {
		if errors.Is(err, audio.ErrNoVoiceDetected) {
			a.printf("No voice detected, please try again.\n")
			return
		}
		a.printf("Voice evaluation failed: %v\n", err)
		return
	}

	a.printf("Transcript: %s\n", eval.Transcript)
	a.printf("Overall %.1f (%s)  content %.1f  grammar %.1f  fluency %.1f  clarity %.1f\n",
		eval.OverallScore, models.ScoreLabel(eval.OverallScore),
		eval.ContentScore, eval.GrammarScore, eval.FluencyScore, eval.ClarityScore)
	if eval.Feedback != "" {
		a.printf("Feedback: %s\n", eval.Feedback)
	}
	a.printf("'submit' to accept, 'record' to try again, or 'answer' to type instead.\n")
}

func (a *app) cmdCancelRecording() {
	if err := a.capture.Cancel(); err != nil {
		a.printf("Nothing to cancel: %v\n", err)
		return
	}
	a.printf("Recording discarded.\n")
}

func (a *app) cmdSubmit(ctx context.Context) {
	if err := a.controller.SubmitAndAdvance(ctx); err != nil {
		if errors.Is(err, session.ErrNoAnswer) {
			a.printf("Provide an answer first: 'answer <text>' or 'record'.\n")
			return
		}
		snap := a.controller.Snapshot()
		if snap.PendingAdvance {
			a.printf("Answer accepted, but the next question could not be fetched: %v\n", err)
			a.printf("'retry' to fetch it again, or 'end' to finish the session.\n")
			return
		}
		a.printf("Submission failed: %v\nYour answer is kept; 'submit' to try again.\n", err)
		return
	}

	if records := a.controller.Records(); len(records) > 0 {
		last := records[len(records)-1]
		a.printf("Scored %.1f (%s): %s\n", last.Score, models.ScoreLabel(last.Score), last.Feedback)
	}
	a.printQuestion()
}

func (a *app) cmdRetry(ctx context.Context) {
	if err := a.controller.RetryAdvance(ctx); err != nil {
		a.printf("Retry failed: %v\n", err)
		return
	}
	a.printQuestion()
}

func (a *app) cmdEnd(ctx context.Context) {
	summary, err := a.controller.End(ctx)
	if err != nil && summary == nil {
		a.printf("Cannot end now: %v\n", err)
		return
	}
	if err != nil {
		a.printf("Note: %v\n", err)
	}

	a.printSummary(*summary)

	if id, err := a.history.SaveSummary(*summary); err != nil {
		a.printf("Could not save session locally: %v\n", err)
	} else {
		a.printf("Saved locally as session #%d.\n", id)
	}
}

func (a *app) cmdHistory(args []string) {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			a.printf("Usage: history [n]\n")
			return
		}
		limit = n
	}

	entries, err := a.history.ListRecent(limit)
	if err != nil {
		a.printf("Could not load history: %v\n", err)
		return
	}
	if len(entries) == 0 {
		a.printf("No finished sessions yet.\n")
		return
	}

	for _, e := range entries {
		a.printf("#%d  %s (%s)  avg %.1f  %s  %s\n",
			e.ID, e.Topic, e.Difficulty, e.AverageScore,
			models.FormatSeconds(e.TotalElapsedSeconds),
			e.FinishedAt.Format("2006-01-02 15:04"))
	}
}

func (a *app) cmdShow(args []string) {
	if len(args) != 1 {
		a.printf("Usage: show <id>\n")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.printf("Usage: show <id>\n")
		return
	}

	entry, err := a.history.GetByID(id)
	if err != nil {
		a.printf("Could not load session #%d: %v\n", id, err)
		return
	}
	a.printSummary(entry.SessionSummary)
}

func (a *app) printQuestion() {
	snap := a.controller.Snapshot()
	if snap.Question == nil {
		return
	}
	a.printf("\nQuestion %d: %s\n", snap.Question.Ordinal, snap.Question.Text)
}

func (a *app) printStatus() {
	snap := a.controller.Snapshot()

	switch snap.State {
	case models.StateQuestionActive:
		a.printf("Question %d: %s\n", snap.Question.Ordinal, snap.Question.Text)
		a.printf("Time on question: %s%s\n",
			models.FormatSeconds(snap.ElapsedSeconds), timerHint(snap.ElapsedSeconds))
		if snap.AnswerText != "" {
			a.printf("Current answer: %s\n", snap.AnswerText)
		}
		if snap.Voice != nil {
			a.printf("Voice answer ready (overall %.1f).\n", snap.Voice.OverallScore)
		}
	case models.StateSubmitting:
		if snap.PendingAdvance {
			a.printf("Waiting for the next question; 'retry' or 'end'.\n")
		} else {
			a.printf("Submitting...\n")
		}
	case models.StateEnded:
		a.printf("Session finished. 'start' to begin another.\n")
	default:
		a.printf("No session in progress. 'start <difficulty> <topic>' to begin.\n")
	}
}

func timerHint(seconds int) string {
	switch {
	case seconds >= models.TimerDangerSeconds:
		return " (!! consider wrapping up)"
	case seconds >= models.TimerWarningSeconds:
		return " (running long)"
	default:
		return ""
	}
}

func (a *app) printSummary(summary models.SessionSummary) {
	a.printf("\n%s (%s) — %d questions answered\n",
		summary.Topic, summary.Difficulty, len(summary.Records))
	a.printf("Average score %.1f  total time %s  excellent answers %d\n",
		summary.AverageScore,
		models.FormatSeconds(summary.TotalElapsedSeconds),
		summary.ExcellentCount)

	for _, r := range summary.Records {
		a.printf("  %d. [%s, %.1f] %s\n", r.Question.Ordinal,
			models.ScoreLabel(r.Score), r.Score, r.Question.Text)
		a.printf("     %s\n", r.Feedback)
	}
}

func (a *app) printPrompt() {
	snap := a.controller.Snapshot()
	if snap.State == models.StateQuestionActive {
		a.printf("[%s] > ", models.FormatSeconds(snap.ElapsedSeconds))
		return
	}
	a.printf("> ")
}

// shutdown ends any live session so the backend record is not left open
func (a *app) shutdown() {
	state := a.controller.State()
	if state == models.StateQuestionActive || state == models.StateSubmitting {
		ctx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
		defer cancel()
		a.cmdEnd(ctx)
	}
	a.printf("Bye.\n")
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
