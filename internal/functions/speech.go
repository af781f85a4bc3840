package functions

import (
	"context"
	"net/http"

	"github.com/tjfontaine/polyglot-functions/internal/codec"
)

const speechMissing = "Please provide a json with a 'speech' key containing a base64 string."

type speechResponse struct {
	Text string `json:"text"`
}

func (h *Handler) speechToText(ctx context.Context, r *http.Request) (*result, error) {
	encoded, err := stringField(r, "speech", speechMissing)
	if err != nil {
		return nil, err
	}

	pcm, err := codec.DecodeBase64(encoded)
	if err != nil {
		return nil, err
	}

	text, err := h.recognizer.Recognize(ctx, pcm)
	if err != nil {
		return nil, err
	}
	return jsonResult(speechResponse{Text: text})
}
