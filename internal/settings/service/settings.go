package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/putridev/sparx-shop/internal/settings/models"
	"github.com/putridev/sparx-shop/internal/settings/repo"
	"github.com/putridev/sparx-shop/internal/watch"
	"github.com/putridev/sparx-shop/pkg/logging"
)

var ErrValidation = errors.New("validation")

// Collection is the watch hub collection carrying the settings document.
const Collection = "settings"

type SettingsService struct {
	Repo *repo.GormRepo
	Hub  *watch.Hub
}

// Get merges the stored document over the defaults, so fields added
// after the last save still come back populated.
func (s *SettingsService) Get(ctx context.Context) (models.StoreSettings, error) {
	settings := models.Defaults()

	payload, err := s.Repo.Load(ctx)
	if err != nil {
		return settings, err
	}
	if payload == nil {
		return settings, nil
	}
	if err := json.Unmarshal(payload, &settings); err != nil {
		// A corrupt document falls back to defaults rather than taking
		// the storefront down.
		logging.FromContext(ctx).Warn("settings_payload_corrupt", "error", err)
		return models.Defaults(), nil
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, settings models.StoreSettings) (models.StoreSettings, error) {
	if strings.TrimSpace(settings.StoreInfo.Name) == "" {
		return settings, fmt.Errorf("%w: store name required", ErrValidation)
	}
	for _, acct := range settings.BankAccounts {
		if strings.TrimSpace(acct.Number) == "" {
			return settings, fmt.Errorf("%w: bank account number required", ErrValidation)
		}
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return settings, err
	}
	if err := s.Repo.Save(ctx, payload); err != nil {
		return settings, err
	}

	s.publishSnapshot(ctx, payload)
	return settings, nil
}

// PublishSnapshot pushes the current document onto the hub, called once
// at startup so late subscribers see settings immediately.
func (s *SettingsService) PublishSnapshot(ctx context.Context) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	s.publishSnapshot(ctx, payload)
	return nil
}

func (s *SettingsService) publishSnapshot(_ context.Context, payload []byte) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(watch.Snapshot{
		Collection: Collection,
		Docs:       map[string]json.RawMessage{"settings": payload},
	})
}
