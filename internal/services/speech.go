package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	gcs "cloud.google.com/go/storage"
	"github.com/tcolgate/mp3"
	"google.golang.org/api/option"

	"guidegen/internal/logger"
)

// syncRecognizeLimit is the longest clip sent through synchronous
// recognition; anything longer (or of unknown length) is staged to a bucket
// and fed to the long-running API.
const syncRecognizeLimit = 60 * time.Second

// baseTranscribeTimeout is the minimum wait for long-running recognition;
// the audio's own duration is added on top.
const baseTranscribeTimeout = 5 * time.Minute

// SpeechService transcribes uploaded audio with Google Cloud Speech-to-Text.
type SpeechService struct {
	log     *logger.Logger
	client  *speech.Client
	storage *gcs.Client
	bucket  string
}

// NewSpeechService builds the speech and storage clients. credsFile may be
// empty, in which case application default credentials are used.
func NewSpeechService(ctx context.Context, log *logger.Logger, bucket string, credsFile string) (*SpeechService, error) {
	var opts []option.ClientOption
	if credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	storageClient, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &SpeechService{
		log:     log.With("service", "SpeechService"),
		client:  client,
		storage: storageClient,
		bucket:  bucket,
	}, nil
}

func (s *SpeechService) Close() error {
	var errs []error
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	return errors.Join(errs...)
}

// Transcribe converts the audio file at path to text. Short clips go through
// synchronous recognition; longer ones are staged to the configured bucket
// for long-running recognition with a timeout that scales with the audio's
// duration, so the caller is never left waiting indefinitely.
func (s *SpeechService) Transcribe(ctx context.Context, path string) (string, error) {
	duration := audioDuration(path)

	if duration > 0 && duration <= syncRecognizeLimit {
		return s.transcribeSync(ctx, path)
	}
	return s.transcribeLong(ctx, path, duration)
}

func (s *SpeechService) transcribeSync(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, baseTranscribeTimeout)
	defer cancel()

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	resp, err := s.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	return joinTranscripts(resp.Results), nil
}

func (s *SpeechService) transcribeLong(ctx context.Context, path string, duration time.Duration) (string, error) {
	if s.bucket == "" {
		return "", errors.New("no staging bucket configured for long audio")
	}

	ctx, cancel := context.WithTimeout(ctx, baseTranscribeTimeout+duration)
	defer cancel()

	object := fmt.Sprintf("uploads/%d_%s", time.Now().Unix(), filepath.Base(path))
	if err := s.stage(ctx, path, object); err != nil {
		return "", err
	}
	defer func() {
		// Best effort; an orphaned staging object is harmless.
		cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := s.storage.Bucket(s.bucket).Object(object).Delete(cleanup); err != nil {
			s.log.Warn("failed to delete staged audio", "object", object, "error", err)
		}
	}()

	uri := fmt.Sprintf("gs://%s/%s", s.bucket, object)
	op, err := s.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: recognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: uri},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech longrunningrecognize: %w", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("wait for transcription: %w", err)
	}
	return joinTranscripts(resp.Results), nil
}

func (s *SpeechService) stage(ctx context.Context, path string, object string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	w := s.storage.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("stage audio to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish gcs upload: %w", err)
	}
	return nil
}

func recognitionConfig() *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:          speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
		SampleRateHertz:   48000,
		LanguageCode:      "en-US",
		AudioChannelCount: 2,
	}
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	var sb strings.Builder
	for _, r := range results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		sb.WriteString(r.Alternatives[0].Transcript)
	}
	return sb.String()
}

// audioDuration scans MP3 frames and sums their durations. Returns 0 for
// non-MP3 input or scan failures, which routes the file through the
// long-running path with the base timeout.
func audioDuration(path string) time.Duration {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total time.Duration
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration()
	}
	return total
}
