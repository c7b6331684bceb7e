package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mathtutor/internal/assess"
	"github.com/abhisek/mathtutor/internal/llm"
	"github.com/abhisek/mathtutor/internal/session"
	"github.com/abhisek/mathtutor/internal/speech"
	"github.com/abhisek/mathtutor/internal/stage"
	"github.com/abhisek/mathtutor/internal/ui/theme"
	"github.com/abhisek/mathtutor/internal/visuals"
	"github.com/abhisek/mathtutor/internal/window"
)

// failureMessage is shown whenever a turn could not be completed.
const failureMessage = "Something went wrong, please try again."

type chatOptions struct {
	sessionID string
	audioDir  string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume a tutoring session",
	Long: `Start a new tutoring session, or resume one with --session.

Type a reply and press enter. "/audio <file>" sends a recorded reply
when speech is enabled; "/quit" ends the chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts chatOptions
		opts.sessionID, _ = cmd.Flags().GetString("session")
		opts.audioDir, _ = cmd.Flags().GetString("audio-dir")
		return runChat(cmd, opts)
	},
}

func init() {
	chatCmd.Flags().String("session", "", "Resume an existing session by id")
	chatCmd.Flags().String("audio-dir", "", "Write spoken tutor replies to this directory")
}

func runChat(cmd *cobra.Command, opts chatOptions) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), logger)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}

	deps := stage.Deps{
		Store:    st.SessionRepo(),
		Provider: provider,
		Assessor: assess.NewAssessor(assess.NewExtractor(provider, cfg.AssessmentSettings())),
		Window:   window.New(provider, cfg.WindowSettings()),
		Logger:   logger,
	}
	if cfg.Visuals.Enabled {
		deps.Visuals = visuals.New(provider, cfg.VisualsSettings())
	}
	if cfg.Speech.Enabled {
		sp, err := speech.NewOpenAI(cfg.SpeechSettings(os.Getenv("OPENAI_API_KEY")))
		if err != nil {
			return fmt.Errorf("enable speech: %w", err)
		}
		deps.Transcriber = sp
		deps.Synthesizer = sp
	}

	owner := resolveOwner(cmd)
	repo := st.SessionRepo()

	var sess *session.Session
	if opts.sessionID != "" {
		if sess, err = repo.Load(ctx, opts.sessionID, owner); err != nil {
			return fmt.Errorf("load session %s: %w", opts.sessionID, err)
		}
	} else {
		sess = session.New(owner)
		if err := repo.Create(ctx, sess); err != nil {
			return err
		}
	}
	logger.Debug("chat started", zap.String("session", sess.ID), zap.String("owner", owner))

	loop := &chatLoop{
		turner:    stage.New(deps, cfg.TutorSettings()),
		in:        cmd.InOrStdin(),
		out:       cmd.OutOrStdout(),
		sessionID: sess.ID,
		ownerID:   owner,
		audioDir:  opts.audioDir,
		speech:    cfg.Speech.Enabled,
		logger:    logger,
	}
	return loop.run(ctx, sess)
}

// turner runs one student turn. *stage.Controller satisfies it.
type turner interface {
	Turn(ctx context.Context, in stage.TurnInput) (*stage.TurnResult, error)
}

// chatLoop reads replies line by line and prints the tutor's answers.
type chatLoop struct {
	turner    turner
	in        io.Reader
	out       io.Writer
	sessionID string
	ownerID   string
	audioDir  string
	speech    bool
	logger    *zap.Logger

	spoken int
}

func (l *chatLoop) run(ctx context.Context, s *session.Session) error {
	fmt.Fprintln(l.out, theme.Title.Render("mathtutor")+" "+theme.Hint.Render("session "+s.ID))
	l.printStatus(s.Stage, s)
	l.printTutor(s.LastTutor())

	scanner := bufio.NewScanner(l.in)
	for {
		fmt.Fprint(l.out, theme.Student.Render("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(l.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		in, quit, err := l.parse(line)
		if quit {
			fmt.Fprintln(l.out, theme.Hint.Render("Bye! Resume with: mathtutor chat --session "+l.sessionID))
			return nil
		}
		if err != nil {
			fmt.Fprintln(l.out, theme.Problem.Render(err.Error()))
			continue
		}

		res, err := l.turner.Turn(ctx, in)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("turn failed", zap.String("session", l.sessionID), zap.Error(err))
			fmt.Fprintln(l.out, theme.Problem.Render(failureMessage))
			continue
		}
		l.printResult(res)
	}
}

// parse turns a typed line into a turn input. "/quit" and "/exit" end the
// loop; "/audio <file>" reads a recording.
func (l *chatLoop) parse(line string) (stage.TurnInput, bool, error) {
	in := stage.TurnInput{SessionID: l.sessionID, OwnerID: l.ownerID}
	switch {
	case line == "/quit" || line == "/exit":
		return in, true, nil
	case strings.HasPrefix(line, "/audio"):
		if !l.speech {
			return in, false, errors.New("speech is disabled; set speech.enabled in the config")
		}
		path := strings.TrimSpace(strings.TrimPrefix(line, "/audio"))
		if path == "" {
			return in, false, errors.New("usage: /audio <file>")
		}
		audio, err := os.ReadFile(path)
		if err != nil {
			return in, false, fmt.Errorf("read recording: %w", err)
		}
		in.Audio = audio
	default:
		in.Text = line
	}
	return in, false, nil
}

func (l *chatLoop) printResult(res *stage.TurnResult) {
	if res.ValidInput && res.Session != nil {
		l.printStatus(res.Stage, res.Session)
	}
	l.printTutor(res.Utterance)
	if res.ValidInput && res.Session != nil {
		for _, eq := range res.Session.Equations {
			fmt.Fprintln(l.out, theme.Equation.Render(eq))
		}
	}
	if len(res.Audio) > 0 && l.audioDir != "" {
		l.saveAudio(res.Audio)
	}
}

func (l *chatLoop) printStatus(st session.Stage, s *session.Session) {
	topic := s.Topic
	if topic == "" {
		topic = "no topic yet"
	}
	fmt.Fprintf(l.out, "%s %s %s\n", theme.StageBadge(st), theme.Hint.Render(topic), theme.LevelMeter(s.Level))
}

func (l *chatLoop) printTutor(text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(l.out, theme.Tutor.Render("Tutor: ")+text)
}

func (l *chatLoop) saveAudio(audio []byte) {
	l.spoken++
	path := filepath.Join(l.audioDir, fmt.Sprintf("%s-%03d.mp3", l.sessionID, l.spoken))
	if err := os.MkdirAll(l.audioDir, 0o755); err != nil {
		l.logger.Warn("create audio dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		l.logger.Warn("write audio", zap.String("path", path), zap.Error(err))
		return
	}
	fmt.Fprintln(l.out, theme.Hint.Render("audio: "+path))
}
