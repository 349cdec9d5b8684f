package toolbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/concierge-labs/concierge/pkg/tooling"
)

// Transcriber turns uploaded audio files into text via the Whisper API.
type Transcriber struct {
	Client *openai.Client
	Dir    string // directory uploaded audio lives in
}

func (t *Transcriber) Spec() tooling.ToolSpec {
	return tooling.ToolSpec{
		Name:        "transcribe_audio",
		Description: "Transcribe an uploaded audio file to text. Input is the audio filename.",
		Params: []tooling.Param{
			{Name: "input", Type: "string", Required: true, Description: "audio filename"},
		},
	}
}

func (t *Transcriber) Invoke(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
	name := tooling.StringArg(req.Arguments, "input")
	path := filepath.Join(t.Dir, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("audio file %s: %w", name, err)
	}
	resp, err := t.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
	})
	if err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("transcribe %s: %w", name, err)
	}
	return tooling.ToolResponse{Content: resp.Text, Metadata: map[string]string{"file": name}}, nil
}

// Speaker synthesizes speech from text and stores the mp3 under MediaDir.
// The response content is the public path the boundary serves it from.
type Speaker struct {
	Client    *openai.Client
	MediaDir  string
	PublicUrl string // prefix the stored file is reachable under, e.g. "/audio"
}

func (s *Speaker) Spec() tooling.ToolSpec {
	return tooling.ToolSpec{
		Name:        "text_to_speech",
		Description: "Convert text to spoken audio. Returns the path of the generated mp3.",
		Params: []tooling.Param{
			{Name: "input", Type: "string", Required: true, Description: "text to speak"},
		},
	}
}

func (s *Speaker) Invoke(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
	text := tooling.StringArg(req.Arguments, "input")
	resp, err := s.Client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Voice: openai.VoiceAlloy,
		Input: text,
	})
	if err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Close()

	if err := os.MkdirAll(s.MediaDir, 0o755); err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("create media dir: %w", err)
	}
	name := uuid.NewString() + ".mp3"
	f, err := os.Create(filepath.Join(s.MediaDir, name))
	if err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("store speech: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp); err != nil {
		return tooling.ToolResponse{}, fmt.Errorf("store speech: %w", err)
	}

	public := s.PublicUrl
	if public == "" {
		public = "/audio"
	}
	return tooling.ToolResponse{
		Content:  public + "/" + name,
		Metadata: map[string]string{"file": name},
	}, nil
}

var (
	_ tooling.Tool = (*Transcriber)(nil)
	_ tooling.Tool = (*Speaker)(nil)
)
