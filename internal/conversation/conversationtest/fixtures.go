// Package conversationtest provides platform log fixtures for tests.
package conversationtest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// Epoch is the timestamp used by fixture requests; responses are one second later.
var Epoch = time.Date(2017, time.August, 10, 14, 30, 0, 0, time.UTC)

const (
	AlexaUserID    = "amzn1.ask.account.AFP3ZWPOS2BGJR7OWJZ3DHPKMOMBGMYLIYKQUSZHAIR7ALWSV5B2MPTYCUZ"
	AlexaSessionID = "SessionId.c5f6c9d5-e923-4305-9804-defee172386e"
	AlexaAppID     = "amzn1.ask.skill.2f1d0c1e-7a4c-4a39-b5ac-6ab7a8c1c2b3"
	PlayerUserID   = "amzn1.ask.account.1237345d-bb6a-470a-b5fd-40dd148390a7"
)

const alexaIntentRequest = `{
  "version": "1.0",
  "session": {
    "new": true,
    "sessionId": "` + AlexaSessionID + `",
    "application": {"applicationId": "` + AlexaAppID + `"},
    "user": {"userId": "` + AlexaUserID + `"}
  },
  "request": {
    "type": "IntentRequest",
    "requestId": "EdwRequestId.6e2a4d5b",
    "locale": "en-US",
    "timestamp": "2017-08-10T14:30:00Z",
    "intent": {"name": "HelloWorldIntent", "slots": {}}
  }
}`

const alexaLaunchRequest = `{
  "version": "1.0",
  "session": {
    "sessionId": "` + AlexaSessionID + `",
    "application": {"applicationId": "` + AlexaAppID + `"},
    "user": {"userId": "` + AlexaUserID + `"}
  },
  "request": {"type": "LaunchRequest", "requestId": "EdwRequestId.0a1b"}
}`

const alexaPlayerRequest = `{
  "version": "1.0",
  "context": {
    "AudioPlayer": {"playerActivity": "PLAYING"},
    "System": {
      "application": {"applicationId": "` + AlexaAppID + `"},
      "user": {"userId": "` + PlayerUserID + `"},
      "device": {"supportedInterfaces": {"AudioPlayer": {}}}
    }
  },
  "request": {"type": "AudioPlayer.PlaybackNearlyFinished", "requestId": "EdwRequestId.ff02"}
}`

const alexaResponse = `{
  "version": "1.0",
  "response": {
    "outputSpeech": {"type": "PlainText", "text": "Hello World"},
    "shouldEndSession": true
  },
  "sessionAttributes": {}
}`

const googleRequest = `{
  "originalRequest": {"source": "google", "data": {"user": {"user_id": "g-123"}}},
  "id": "a4c8b2d1",
  "sessionId": "1502376600000",
  "result": {
    "source": "agent",
    "resolvedQuery": "talk to my test app",
    "metadata": {"intentName": "Default Welcome Intent"}
  }
}`

const googleResponse = `{"speech": "Welcome!", "displayText": "Welcome!", "data": {"google": {"expect_user_response": true}}}`

// Record builds a log record with the given payload and tags.
func Record(id, transactionID, level string, payload string, tags ...string) domain.LogRecord {
	return domain.LogRecord{
		ID:            id,
		Payload:       json.RawMessage(payload),
		Level:         level,
		Source:        "happy-xisting",
		TransactionID: transactionID,
		Timestamp:     Epoch,
		Tags:          tags,
	}
}

// JSON encodes v so it can be used as a record payload.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("conversationtest: %v", err))
	}
	return string(b)
}

// AlexaIntentRequest is an Alexa IntentRequest for HelloWorldIntent in the legacy session shape.
func AlexaIntentRequest() domain.LogRecord {
	return Record("request-intent", "tx-1", domain.LevelDebug, alexaIntentRequest, domain.TagRequest)
}

// AlexaLaunchRequest is an Alexa LaunchRequest, which has no intent.
func AlexaLaunchRequest() domain.LogRecord {
	return Record("request-launch", "tx-1", domain.LevelDebug, alexaLaunchRequest, domain.TagRequest)
}

// AlexaPlayerRequest is an AudioPlayer request that only carries the context.System shape.
func AlexaPlayerRequest() domain.LogRecord {
	return Record("request-player", "tx-1", domain.LevelDebug, alexaPlayerRequest, domain.TagRequest)
}

// AlexaResponse speaks "Hello World".
func AlexaResponse() domain.LogRecord {
	r := Record("response-1", "tx-1", domain.LevelDebug, alexaResponse, domain.TagResponse)
	r.Timestamp = Epoch.Add(time.Second)
	return r
}

// GoogleRequest is an API.AI webhook request forwarded from Google Home.
func GoogleRequest() domain.LogRecord {
	return Record("request-google", "tx-2", domain.LevelDebug, googleRequest, domain.TagRequest)
}

// GoogleResponse is the webhook answer to GoogleRequest.
func GoogleResponse() domain.LogRecord {
	r := Record("response-google", "tx-2", domain.LevelDebug, googleResponse, domain.TagResponse)
	r.Timestamp = Epoch.Add(time.Second)
	return r
}

// Outputs returns n DEBUG outputs for transaction tx-1.
func Outputs(n int) []domain.Output {
	outputs := make([]domain.Output, n)
	for i := range outputs {
		outputs[i] = domain.Output{
			ID:            fmt.Sprintf("output-%d", i),
			TransactionID: "tx-1",
			Timestamp:     Epoch,
			Level:         domain.LevelDebug,
			Message:       fmt.Sprintf("message %d", i),
		}
	}
	return outputs
}

// Output returns a single output at the given level.
func Output(level string) domain.Output {
	return domain.Output{
		ID:            "output",
		TransactionID: "tx-1",
		Timestamp:     Epoch,
		Level:         level,
		Message:       "message",
	}
}

// StackTrace returns a stack trace for transaction tx-1.
func StackTrace() domain.StackTrace {
	return domain.StackTrace{
		ID:            "stack-1",
		TransactionID: "tx-1",
		Timestamp:     Epoch,
		Message:       "TypeError: Cannot read property 'name' of undefined",
		Raw:           "TypeError: Cannot read property 'name' of undefined\n    at index.js:12:5",
	}
}

// Ptr returns a pointer to a copy of r.
func Ptr(r domain.LogRecord) *domain.LogRecord {
	return &r
}
