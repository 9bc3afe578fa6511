package logging

import (
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/brettski74/milton/internal/status"
)

// influxDBLogger ships one point per tick to an external InfluxDB
// instance, grounded directly in the teacher's logging.influxDBLogger
// (same batched async write API, same background error-drain goroutine).
type influxDBLogger struct {
	client      influxdb2.Client
	asyncWriter api.WriteAPI
}

// NewInfluxDB connects to baseURL/org/bucket with authToken and returns a
// Logger that writes a "milton_status" point per tick.
func NewInfluxDB(baseURL, authToken, org, bucket string) Logger {
	options := influxdb2.DefaultOptions()
	options.WriteOptions().SetBatchSize(1000)
	options.WriteOptions().SetFlushInterval(250)

	client := influxdb2.NewClientWithOptions(baseURL, authToken, options)
	writeAPI := client.WriteAPI(org, bucket)

	errorsCh := writeAPI.Errors()
	go func() {
		for err := range errorsCh {
			fmt.Printf("[%s] influxdb2 async write error: %v\n", time.Now().Format(time.StampMilli), err)
		}
	}()

	return &influxDBLogger{client: client, asyncWriter: writeAPI}
}

func (l *influxDBLogger) Log(s *status.Status) error {
	p := influxdb2.NewPointWithMeasurement("milton_status").
		AddTag("stage", s.StageName).
		AddField("temperature", s.Temperature).
		AddField("set_point", s.ThenTemperature).
		AddField("power", s.Power).
		AddField("set_power", s.SetPower).
		AddField("ambient", s.Ambient).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
	return nil
}

// LogWarning ships a "milton_warning" point alongside the per-tick
// "milton_status" points, using the same fire-and-forget async write API
// so a slow or unreachable InfluxDB instance never blocks the tick that
// raised the warning.
func (l *influxDBLogger) LogWarning(message string) error {
	p := influxdb2.NewPointWithMeasurement("milton_warning").
		AddField("message", message).
		SetTime(time.Now())
	l.asyncWriter.WritePoint(p)
	return nil
}

func (l *influxDBLogger) Close() error {
	l.asyncWriter.Flush()
	l.client.Close()
	return nil
}
