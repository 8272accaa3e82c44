// Package config provides typed, precedence-aware access to the
// .envvar-service1 key/value file and process environment, following the
// section-scoped G_* convention of the original Aithon ConfigManager.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider is a read-only, section-scoped key/value source. It is
// constructed once at service start and never mutated afterward.
type Provider struct {
	sections map[string]map[string]string
	printEnv bool
}

// Load reads envPath (an ini-like file: "[SECTION]" headers followed by
// "KEY=VALUE" lines) and also loads a .env file via godotenv for local
// development convenience. Missing files are not an error: callers fall
// back to process environment and defaults.
func Load(envPath string) (*Provider, error) {
	_ = godotenv.Load()

	p := &Provider{
		sections: make(map[string]map[string]string),
		printEnv: os.Getenv("DEBUG_CONFIG_PRINT") == "true",
	}

	data, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}

	p.parse(string(data))
	return p, nil
}

func (p *Provider) parse(data string) {
	section := ""
	for _, rawLine := range strings.Split(data, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			if _, ok := p.sections[section]; !ok {
				p.sections[section] = make(map[string]string)
			}
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if section == "" {
			section = "DEFAULT"
		}
		if _, ok := p.sections[section]; !ok {
			p.sections[section] = make(map[string]string)
		}
		p.sections[section][key] = val
	}
}

// Get resolves key with precedence: process environment variable > value in
// the named section > value in any section > fallback. section may be
// empty, in which case only the any-section lookup applies.
func (p *Provider) Get(key, section, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		p.debugLog(key, v, false)
		return v
	}

	if section != "" {
		if sec, ok := p.sections[section]; ok {
			if v, ok := sec[key]; ok {
				p.debugLog(key, v, false)
				return v
			}
		}
	}

	for _, sec := range p.sections {
		if v, ok := sec[key]; ok {
			p.debugLog(key, v, false)
			return v
		}
	}

	p.debugLog(key, fallback, true)
	return fallback
}

// GetInt resolves an integer-valued key, falling back to fallback on parse
// failure or absence.
func (p *Provider) GetInt(key, section string, fallback int) int {
	v := p.Get(key, section, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetBool resolves a boolean-valued key ("true"/"1"/"yes" are truthy).
func (p *Provider) GetBool(key, section string, fallback bool) bool {
	v := strings.ToLower(p.Get(key, section, ""))
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1" || v == "yes"
}

func (p *Provider) debugLog(key, value string, isDefault bool) {
	if !p.printEnv {
		return
	}
	display := value
	if isSensitiveKey(key) {
		display = maskSensitiveValue(value)
	}
	suffix := ""
	if isDefault {
		suffix = " (default)"
	}
	os.Stderr.WriteString("ENV: " + key + " = " + display + suffix + "\n")
}

func isSensitiveKey(key string) bool {
	for _, suffix := range []string{"API_KEY", "TOKEN", "PASSWORD", "SECRET", "KEY", "AUTH"} {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func maskSensitiveValue(value string) string {
	l := len(value)
	if l <= 8 {
		return "***masked***"
	}
	if l <= 12 {
		return value[:1] + "***masked***" + value[l-1:]
	}
	return value[:4] + "***masked***" + value[l-4:]
}
