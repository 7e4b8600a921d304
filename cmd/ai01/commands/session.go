package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/huddle01/ai01-go/internal/complaints"
	"github.com/huddle01/ai01-go/pkg/agent"
	"github.com/huddle01/ai01-go/pkg/audio/pcm"
	"github.com/huddle01/ai01-go/pkg/cli"
	"github.com/huddle01/ai01-go/pkg/kv"
	"github.com/huddle01/ai01-go/pkg/recorder"
	"github.com/huddle01/ai01-go/pkg/storage"
	"github.com/huddle01/ai01-go/pkg/tools"
)

// sessionFlags are shared by the chatbot and gemini commands.
type sessionFlags struct {
	roomID      string
	personaFile string
	record      bool
	s3Bucket    string
	s3Region    string
}

// openComplaintBook opens the persistent complaint store and returns the
// tool registry for it.
func openComplaintBook(ctx context.Context) (*tools.Registry, func() error, error) {
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, nil, err
	}
	if err := paths.EnsureDataDir(); err != nil {
		return nil, nil, err
	}
	store, err := kv.NewBadger(kv.BadgerOptions{
		Dir: paths.DataPath("complaints"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open complaint store: %w", err)
	}
	book := complaints.NewBook(store)
	if err := book.Seed(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return tools.NewRegistry(book.Tools()...), store.Close, nil
}

// newRecorder builds a recorder sink when recording is enabled. With an S3
// bucket the recording streams to S3; otherwise it lands under
// ~/.ai01/recordings. AWS credentials/region come from the standard
// environment variables.
func newRecorder(ctx context.Context, f sessionFlags, format pcm.Format) (*recorder.Recorder, error) {
	var store storage.FileStore
	if f.s3Bucket != "" {
		region := f.s3Region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		client := s3.New(s3.Options{
			Region: region,
			Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
					SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				}, nil
			}),
		})
		store = storage.NewS3(client, f.s3Bucket, "")
	} else {
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, err
		}
		if err := paths.EnsureRecordingsDir(); err != nil {
			return nil, err
		}
		local, err := storage.NewLocal(paths.RecordingsDir())
		if err != nil {
			return nil, err
		}
		store = local
	}
	path := recorder.Path(f.roomID, time.Now())
	slog.Info("recording conversation", "path", path, "s3_bucket", f.s3Bucket)
	return recorder.New(ctx, store, path, format)
}

// sessionHooks logs the conversation lifecycle.
func sessionHooks() *agent.Hooks {
	return &agent.Hooks{
		OnStateChange: func(from, to agent.State) {
			slog.Debug("agent state", "from", from, "to", to)
		},
		OnUserTranscript: func(text string) {
			slog.Info("user said", "text", text)
		},
		OnAgentTranscript: func(text string) {
			slog.Debug("agent said", "text", text)
		},
		OnToolCall: func(name, args string) {
			slog.Info("tool call", "name", name, "args", args)
		},
		OnInterrupted: func() {
			slog.Info("agent interrupted by user speech")
		},
		OnError: func(err error) {
			slog.Error("session error", "err", err)
		},
	}
}

// runSession joins the room and runs the agent until ctx is cancelled.
func runSession(ctx context.Context, creds credentials, model agent.Model, name string, f sessionFlags) error {
	var sinks []pcm.Writer
	if f.record {
		rec, err := newRecorder(ctx, f, model.InputFormat())
		if err != nil {
			return err
		}
		defer rec.Close()
		sinks = append(sinks, rec)
	}

	a, err := agent.New(agent.Options{
		Client:      creds.rtcClient(),
		Model:       model,
		Hooks:       sessionHooks(),
		DisplayName: name,
		Sinks:       sinks,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Join(ctx, f.roomID); err != nil {
		return fmt.Errorf("join room %s: %w", f.roomID, err)
	}

	return a.Run(ctx)
}
