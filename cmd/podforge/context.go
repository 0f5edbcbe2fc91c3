package main

import (
	"strings"
	"sync"

	"podforge/internal/api"
	"podforge/internal/config"
)

type commandContext struct {
	serverFlag *string
	tokenFlag  *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, tokenFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		tokenFlag:  tokenFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client from flags, falling back to the configured
// bind address and token.
func (c *commandContext) client() (*api.Client, error) {
	server := ""
	token := ""
	if c.serverFlag != nil {
		server = strings.TrimSpace(*c.serverFlag)
	}
	if c.tokenFlag != nil {
		token = strings.TrimSpace(*c.tokenFlag)
	}
	// An explicit --server works without any local configuration.
	if server == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		server = cfg.Paths.APIBind
		if token == "" {
			token = cfg.Paths.APIToken
		}
	}
	return api.NewClient(server, token), nil
}
