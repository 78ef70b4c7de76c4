package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// serviceName is stamped on every log line so aggregated streams stay
// attributable.
const serviceName = "psa-api"

var (
	sinkOnce sync.Once
	sink     *log.Logger
)

func logSink() *log.Logger {
	sinkOnce.Do(func() {
		sink = log.New(os.Stdout, "", 0)
	})
	return sink
}

// LogRequest emits one JSON log line. The service name is stamped here, and a
// timestamp is added when the caller did not supply one, so call sites only
// carry request-specific fields.
func LogRequest(fields map[string]any) {
	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["service"] = serviceName
	if _, ok := entry["ts"]; !ok {
		entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		logSink().Printf(`{"service":%q,"level":"error","msg":"log marshal failed"}`, serviceName)
		return
	}
	logSink().Println(string(data))
}
