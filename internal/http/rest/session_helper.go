package rest

import (
	"context"
	"log"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/session"
	"github.com/bwise1/roadwatch/util/values"
)

func (api *API) CreateSessionHelper(ctx context.Context) (session.Info, string, string, error) {
	s, err := api.Deps.Sessions.Create(ctx)
	if s == nil {
		status, message := errorStatus(err)
		return session.Info{}, status, message, err
	}
	if err != nil {
		// the session stays usable; the roads can be refetched
		log.Printf("⚠️ session %s opened without roads: %v", s.ID, err)
		return s.Info(), values.Created, "Session created, roads could not be loaded", nil
	}
	return s.Info(), values.Created, "Session created successfully", nil
}

func (api *API) SwitchRoleHelper(ctx context.Context, id string, role model.Role) (session.Info, string, string, error) {
	s, err := api.Deps.Sessions.Get(id)
	if err != nil {
		status, message := errorStatus(err)
		return session.Info{}, status, message, err
	}

	if err := s.SwitchRole(ctx, role); err != nil {
		status, message := errorStatus(err)
		if status == values.Upstream || status == values.Error {
			return s.Info(), values.Success, "Role switched, roads could not be loaded", nil
		}
		return session.Info{}, status, message, err
	}
	return s.Info(), values.Success, "Role switched successfully", nil
}

func (api *API) session(id string) (*session.Session, string, string, error) {
	s, err := api.Deps.Sessions.Get(id)
	if err != nil {
		status, message := errorStatus(err)
		return nil, status, message, err
	}
	return s, values.Success, "", nil
}
