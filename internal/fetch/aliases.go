package fetch

import (
	"github.com/tengjizhang/reader/internal/config"
	"github.com/tengjizhang/reader/internal/model"
)

type Config = config.Config
type Channel = model.Channel
type ChannelItem = model.ChannelItem
