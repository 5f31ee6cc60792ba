// Command protoschema emits a JSON schema for the wire protocol so the
// session authority and tooling can validate frames against the client's
// expectations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"rollcube/client/internal/net/proto"
)

// wireProtocol gathers every frame shape the client sends or accepts.
type wireProtocol struct {
	Join      proto.JoinIntent      `json:"join"`
	Pose      proto.PoseIntent      `json:"pose"`
	Collect   proto.CollectIntent   `json:"collectItem"`
	InitLevel proto.InitLevelIntent `json:"initLevel"`
	CastVote  proto.CastVoteIntent  `json:"castVote"`
	SetReady  proto.SetReadyIntent  `json:"setReady"`
	Heartbeat proto.HeartbeatIntent `json:"heartbeat"`

	Roster           proto.RosterEvent           `json:"roster"`
	PlayerJoined     proto.PlayerJoinedEvent     `json:"playerJoined"`
	PlayerLeft       proto.PlayerLeftEvent       `json:"playerLeft"`
	ReadyChanged     proto.ReadyChangedEvent     `json:"readyChanged"`
	Countdown        proto.CountdownEvent        `json:"startCountdown"`
	GameStarted      proto.GameStartedEvent      `json:"gameStarted"`
	State            proto.StateEvent            `json:"state"`
	VoteStarted      proto.VoteStartedEvent      `json:"voteStarted"`
	VoteUpdate       proto.VoteUpdateEvent       `json:"voteUpdate"`
	VoteEnded        proto.VoteEndedEvent        `json:"voteEnded"`
	ItemCollected    proto.ItemCollectedEvent    `json:"itemCollected"`
	LevelInitialized proto.LevelInitializedEvent `json:"levelInitialized"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(wireProtocol))
	schema.Title = "Rollcube Wire Protocol"
	schema.Description = fmt.Sprintf("Frame shapes for wire protocol version %d", proto.Version)
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
