package functions

import (
	"context"
	"net/http"

	"github.com/tjfontaine/polyglot-functions/internal/codec"
)

const imageMissing = "Please provide a json with a 'image' key containing a base64 string."

type imageResponse struct {
	Image string `json:"image"`
}

func (h *Handler) transformImage(_ context.Context, r *http.Request) (*result, error) {
	encoded, err := stringField(r, "image", imageMissing)
	if err != nil {
		return nil, err
	}

	gray, err := codec.GrayscaleBase64(encoded)
	if err != nil {
		return nil, err
	}
	return jsonResult(imageResponse{Image: gray})
}
