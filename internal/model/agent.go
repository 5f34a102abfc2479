// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// =============================================================================
// AGENT TYPE
// =============================================================================

// AgentType selects the remote endpoint a question is sent to.
type AgentType string

const (
	AgentDoc     AgentType = "doc"
	AgentFinance AgentType = "finance"
	AgentVision  AgentType = "vision"
	AgentSearch  AgentType = "search"
)

// DefaultAgent is used when no agent is configured or a module name is unknown.
const DefaultAgent = AgentDoc

// Agents lists every agent in menu order.
var Agents = []AgentType{AgentDoc, AgentFinance, AgentVision, AgentSearch}

type agentInfo struct {
	module   string
	greeting string
	blurb    string
}

var agentTable = map[AgentType]agentInfo{
	AgentDoc: {
		module:   "Aïna DOC",
		greeting: "Ask your documents",
		blurb:    "Search, analyse and summarise your documents in natural language.",
	},
	AgentFinance: {
		module:   "Aïna Finance",
		greeting: "Ask your numbers",
		blurb:    "Turn financial data into clear, actionable insights.",
	},
	AgentVision: {
		module:   "Aïna Vision",
		greeting: "Ask your images",
		blurb:    "Extract precise details from images and photos.",
	},
	AgentSearch: {
		module:   "Aïna Search",
		greeting: "Ask Aïna Search, know more…",
		blurb:    "Semantic search across all of your data.",
	},
}

// Valid reports whether a is a known agent.
func (a AgentType) Valid() bool {
	_, ok := agentTable[a]
	return ok
}

// DisplayName returns the branded module name, e.g. "Aïna Finance".
func (a AgentType) DisplayName() string {
	if info, ok := agentTable[a]; ok {
		return info.module
	}
	return string(a)
}

// Greeting returns the prompt shown on an empty conversation.
func (a AgentType) Greeting() string {
	if info, ok := agentTable[a]; ok {
		return info.greeting
	}
	return agentTable[DefaultAgent].greeting
}

// Description returns a one-line summary of what the agent does.
func (a AgentType) Description() string {
	return agentTable[a].blurb
}

// KeepsRows reports whether tabular rows from this agent are shown.
func (a AgentType) KeepsRows() bool {
	return a == AgentFinance
}

// ParseAgent accepts an agent key ("finance") or a module name ("Aïna Finance").
func ParseAgent(s string) (AgentType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if a := AgentType(key); a.Valid() {
		return a, nil
	}
	for _, a := range Agents {
		if strings.EqualFold(agentTable[a].module, strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown agent %q (want doc, finance, vision or search)", s)
}

// AgentForModule maps a branded module name to its agent. Unknown names fall
// back to DefaultAgent.
func AgentForModule(module string) AgentType {
	for _, a := range Agents {
		if agentTable[a].module == module {
			return a
		}
	}
	return DefaultAgent
}
