// Package useragent provides the per-request header set, rotating the
// User-Agent string across a fixed pool to reduce blocking.
package useragent

import (
	"bufio"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

//go:embed default_agents.txt
var defaultAgents string

// Pool is an immutable set of user-agent strings.
type Pool struct {
	agents []string
}

// NewPool builds a pool from the given agents, dropping blank entries.
// An empty pool is a startup error, not a per-call one.
func NewPool(agents []string) (*Pool, error) {
	cleaned := make([]string, 0, len(agents))
	for _, agent := range agents {
		agent = strings.TrimSpace(agent)
		if agent == "" {
			continue
		}
		cleaned = append(cleaned, agent)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("user-agent pool is empty")
	}
	return &Pool{agents: cleaned}, nil
}

// Load reads a newline-delimited user-agent list from path.
func Load(path string) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open user-agent file: %w", err)
	}
	defer f.Close()

	var agents []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		agents = append(agents, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read user-agent file %q: %w", path, err)
	}

	pool, err := NewPool(agents)
	if err != nil {
		return nil, fmt.Errorf("user-agent file %q: %w", path, err)
	}
	return pool, nil
}

// Default returns a pool built from the embedded agent list.
func Default() *Pool {
	pool, err := NewPool(strings.Split(defaultAgents, "\n"))
	if err != nil {
		// The embedded list is compiled in and never empty.
		panic(err)
	}
	return pool
}

// Size reports how many agents the pool holds.
func (p *Pool) Size() int {
	return len(p.agents)
}

// Headers returns a plausible browser header set with a user-agent chosen
// uniformly at random. Every call draws independently; there is no
// session affinity. Accept-Encoding is left to the transport so response
// bodies arrive transparently decompressed.
func (p *Pool) Headers() map[string]string {
	return map[string]string{
		"User-Agent":      p.agents[rand.IntN(len(p.agents))],
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-GB,en;q=0.5",
		"Referer":         "https://www.google.com",
		"DNT":             "1",
	}
}
