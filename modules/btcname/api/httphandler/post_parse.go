package httphandler

import (
	"encoding/base64"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common"
	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/gofiber/fiber/v2"
)

type postParseRequest struct {
	Content       string `json:"content"`
	ContentBase64 string `json:"contentBase64"` // for non UTF-8 payloads
}

const postParseMaxContentSize = 1024

func (r *postParseRequest) Validate() ([]byte, error) {
	var errList []error
	content := []byte(r.Content)
	if r.ContentBase64 != "" {
		if r.Content != "" {
			errList = append(errList, errors.New("only one of 'content' and 'contentBase64' can be set"))
		}
		decoded, err := base64.StdEncoding.DecodeString(r.ContentBase64)
		if err != nil {
			errList = append(errList, errors.New("'contentBase64' is not valid base64"))
		}
		content = decoded
	}
	if len(content) > postParseMaxContentSize {
		errList = append(errList, errors.Errorf("content cannot exceed %d bytes", postParseMaxContentSize))
	}
	if len(errList) > 0 {
		return nil, errs.WithPublicMessage(errors.Join(errList...), "validation error")
	}
	return content, nil
}

type parseResult struct {
	Mode      string  `json:"mode"`
	Valid     bool    `json:"valid"`
	Error     *string `json:"error,omitempty"`
	Key       string  `json:"key,omitempty"`
	Localpart string  `json:"localpart,omitempty"`
	Suffix    string  `json:"suffix,omitempty"`
	Kind      string  `json:"kind,omitempty"`
}

type postParseResult struct {
	List []parseResult `json:"list"`
}

type postParseResponse = common.HttpResponse[postParseResult]

func (h *HttpHandler) PostParse(ctx *fiber.Ctx) (err error) {
	var req postParseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errors.WithStack(err)
	}
	content, err := req.Validate()
	if err != nil {
		return errors.WithStack(err)
	}

	parsed := h.usecase.ParseName(content)
	results := make([]parseResult, 0, len(parsed))
	for _, p := range parsed {
		if p.Err != nil {
			message := p.Err.Error()
			results = append(results, parseResult{
				Mode:  p.Mode,
				Valid: false,
				Error: &message,
			})
			continue
		}
		results = append(results, parseResult{
			Mode:      p.Mode,
			Valid:     true,
			Key:       p.Key,
			Localpart: p.Name.Localpart,
			Suffix:    p.Name.Suffix,
			Kind:      p.Name.Kind.String(),
		})
	}

	resp := postParseResponse{
		Result: &postParseResult{
			List: results,
		},
	}

	return errors.WithStack(ctx.JSON(resp))
}
