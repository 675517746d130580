package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	handshakeSchema := compile("handshake.schema.json")
	ackSchema := compile("handshake_ack.schema.json")
	tickSchema := compile("tick_info.schema.json")
	requestSchema := compile("request.schema.json")
	validationSchema := compile("validation_result.schema.json")

	var handshake any
	_ = json.Unmarshal([]byte(`{
	  "botName":"walker",
	  "spawnable":true,
	  "lifecycle":"MANAGED",
	  "characterConfig":{"class":"scout"},
	  "clientToken":"ct-1",
	  "sessionSecret":"s3cret"
	}`), &handshake)
	validate(handshakeSchema, handshake)

	var ack any
	_ = json.Unmarshal([]byte(`{
	  "serverToken":"st-1",
	  "characterConfig":{"class":"scout"}
	}`), &ack)
	validate(ackSchema, ack)

	var tick any
	_ = json.Unmarshal([]byte(`{
	  "tick":150,
	  "sceneId":"default",
	  "entities":{
	    "3":{
	      "id":3,
	      "name":"walker-1",
	      "type":"BotPlayer",
	      "position":{"x":1.5,"y":0,"z":-2},
	      "rotation":{"x":0,"y":0,"z":0,"w":1},
	      "isPlayer":true,
	      "clientId":1,
	      "hp":20
	    },
	    "-1":{
	      "id":-1,
	      "name":"overlay",
	      "type":"Overlay",
	      "position":{"x":0,"y":0,"z":0},
	      "rotation":{"x":0,"y":0,"z":0,"w":1},
	      "isPlayer":false
	    }
	  }
	}`), &tick)
	validate(tickSchema, tick)

	var request any
	_ = json.Unmarshal([]byte(`{
	  "action":"MoveTo",
	  "input":{"x":3,"y":0,"z":4},
	  "targetId":3
	}`), &request)
	validate(requestSchema, request)

	var validation any
	_ = json.Unmarshal([]byte(`{
	  "name":"reached_waypoint",
	  "passed":false,
	  "message":"still 4.2 away"
	}`), &validation)
	validate(validationSchema, validation)
}
