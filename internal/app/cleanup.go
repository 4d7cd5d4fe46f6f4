package app

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Clean removes the legacy packaging files of a project.
func (s Service) Clean(ctx context.Context, req CleanRequest) (CleanResult, error) {
	dir, err := projectDir(req.ProjectDir)
	if err != nil {
		return CleanResult{}, err
	}
	removed, err := s.clean(dir)
	if err != nil {
		return CleanResult{Removed: removed}, err
	}
	log.Ctx(ctx).Info().Int("removed", len(removed)).Msg("legacy files removed")
	return CleanResult{Removed: removed}, nil
}

func (s Service) clean(dir string) ([]string, error) {
	candidates, err := s.Cleanup.Candidates(dir)
	if err != nil {
		return nil, err
	}
	return s.Cleanup.Remove(dir, candidates)
}
