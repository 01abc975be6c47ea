package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// fileConfig mirrors Config in HCL. Every block and attribute is optional;
// values left unset keep the current setting.
//
//	server {
//	  port    = 8080
//	}
//	llm {
//	  model   = "gpt-4-0314"
//	  timeout = "60s"
//	}
type fileConfig struct {
	Server   *serverBlock   `hcl:"server,block"`
	LLM      *llmBlock      `hcl:"llm,block"`
	Template *templateBlock `hcl:"template,block"`
	Mongo    *mongoBlock    `hcl:"mongo,block"`
	Metrics  *metricsBlock  `hcl:"metrics,block"`
}

type serverBlock struct {
	Host         string `hcl:"host,optional"`
	Port         int    `hcl:"port,optional"`
	ReadTimeout  string `hcl:"read_timeout,optional"`
	WriteTimeout string `hcl:"write_timeout,optional"`
}

type llmBlock struct {
	APIKey  string `hcl:"api_key,optional"`
	BaseURL string `hcl:"base_url,optional"`
	Model   string `hcl:"model,optional"`
	Timeout string `hcl:"timeout,optional"`
}

type templateBlock struct {
	Dir  string `hcl:"dir,optional"`
	Name string `hcl:"name,optional"`
}

type mongoBlock struct {
	URI      string `hcl:"uri,optional"`
	Database string `hcl:"database,optional"`
}

type metricsBlock struct {
	Addr string `hcl:"addr,optional"`
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if b := fc.Server; b != nil {
		setString(&c.Server.Host, b.Host)
		if b.Port != 0 {
			c.Server.Port = b.Port
		}
		if err := setDuration(&c.Server.ReadTimeout, b.ReadTimeout, "server.read_timeout"); err != nil {
			return err
		}
		if err := setDuration(&c.Server.WriteTimeout, b.WriteTimeout, "server.write_timeout"); err != nil {
			return err
		}
	}
	if b := fc.LLM; b != nil {
		setString(&c.LLM.APIKey, b.APIKey)
		setString(&c.LLM.BaseURL, b.BaseURL)
		setString(&c.LLM.Model, b.Model)
		if err := setDuration(&c.LLM.Timeout, b.Timeout, "llm.timeout"); err != nil {
			return err
		}
	}
	if b := fc.Template; b != nil {
		setString(&c.Template.Dir, b.Dir)
		setString(&c.Template.Name, b.Name)
	}
	if b := fc.Mongo; b != nil {
		setString(&c.Mongo.URI, b.URI)
		setString(&c.Mongo.Database, b.Database)
	}
	if b := fc.Metrics; b != nil {
		setString(&c.Metrics.Addr, b.Addr)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}
