package rest

import (
	"github.com/bwise1/roadwatch/internal/drawing"
	"github.com/bwise1/roadwatch/util/values"
)

func (api *API) drawingHelper(id string) (*drawing.Controller, string, string, error) {
	s, status, message, err := api.session(id)
	if err != nil {
		return nil, status, message, err
	}

	c, err := s.Drawing()
	if err != nil {
		return nil, values.NotAllowed, "Only managers can draw roads", err
	}
	return c, values.Success, "", nil
}
