package margin

import (
	"context"
	"fmt"

	"github.com/STTM-NSU/futures-screener/internal/logger"
	"resty.dev/v3"
)

const _overridesURL = "/margin-overrides"

type remoteErrorResponse struct {
	Message string `json:"message"`
}

// RemoteSource pulls the curated override table from the operator's
// service, so margins verified in the terminal propagate without a
// redeploy. A failed fetch degrades to ErrOverrideTableUnavailable; the
// caller keeps the previous snapshot or an empty table.
type RemoteSource struct {
	c      *resty.Client
	logger logger.Logger
}

func NewRemoteSource(address string, l logger.Logger) *RemoteSource {
	client := resty.New().
		SetLogger(l).
		SetBaseURL(address)

	return &RemoteSource{
		c:      client,
		logger: l,
	}
}

func (s *RemoteSource) Fetch(ctx context.Context) (*OverrideTable, error) {
	req := s.c.R().
		SetResult(&OverrideTable{}).
		SetError(&remoteErrorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_overridesURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't fetch overrides: %s", ErrOverrideTableUnavailable, err)
	}
	defer resp.Body.Close()

	s.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		response := resp.Error().(*remoteErrorResponse)
		return nil, fmt.Errorf("%w: %s", ErrOverrideTableUnavailable, response.Message)
	}
	if resp.IsSuccess() {
		table := resp.Result().(*OverrideTable)
		if table.MarginPerLot == nil && table.MarginRatePct == nil && table.SimilarGroups == nil {
			return nil, fmt.Errorf("%w: empty overrides payload", ErrOverrideTableUnavailable)
		}
		return table.Normalize(), nil
	}

	return nil, fmt.Errorf("%w: unexpected status %s", ErrOverrideTableUnavailable, resp.Status())
}
