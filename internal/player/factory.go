package player

import (
	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/log"
)

// CreateManager creates the player runtime manager selected by the configuration
func CreateManager(cfg *config.Config) Manager {
	playerType := PlayerType(cfg.Player.Type)
	log.Info("Creating player manager", "type", playerType)

	switch playerType {
	case PlayerTypeMPV:
		return NewMPVManager(cfg)
	default:
		log.Warn("Unknown player type, falling back to MPV", "type", playerType)
		return NewMPVManager(cfg)
	}
}
