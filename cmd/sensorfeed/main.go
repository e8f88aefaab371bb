// sensorfeed generates binary sensor traffic for the bridge and
// processor daemons: silence packets, WAV file audio, live microphone
// audio, or synthetic 10-channel sensor vectors, over UDP or TCP.
package main

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"sensorbridge/internal/sensor"
)

const sampleRate = 16000

func main() {
	fs := pflag.NewFlagSet("sensorfeed", pflag.ContinueOnError)
	target := fs.String("target", "127.0.0.1", "destination host")
	port := fs.Int("port", 9000, "destination port")
	transport := fs.String("transport", "udp", "transport: udp or tcp")
	sensorID := fs.Uint32("sensor-id", 1, "sensor_id stamped on every packet")
	rate := fs.Int("rate", 100, "packets per second (0 = unthrottled)")
	count := fs.Int("count", 0, "stop after this many packets (0 = unlimited)")
	chunkMS := fs.Int("chunk-ms", 20, "audio chunk duration per packet")
	wavPath := fs.String("wav", "", "stream a 16-bit PCM WAV file as audio packets")
	mic := fs.Bool("mic", false, "stream live microphone audio")
	vector := fs.Bool("vector", false, "send synthetic sensor vectors instead of audio")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", *target, *port)
	conn, err := net.Dial(*transport+"4", addr)
	if err != nil {
		log.Error("dial failed", "addr", addr, "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	s := &sender{
		conn:     conn,
		framed:   *transport == "tcp",
		sensorID: *sensorID,
		start:    time.Now(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})
	go func() {
		<-sigChan
		close(stop)
	}()

	var payloads <-chan payload
	switch {
	case *vector:
		payloads = vectorSource(stop)
	case *wavPath != "":
		payloads, err = wavSource(stop, *wavPath, chunkSamples(*chunkMS))
	case *mic:
		payloads, err = micSource(stop, chunkSamples(*chunkMS))
	default:
		payloads = silenceSource(stop, chunkSamples(*chunkMS))
	}
	if err != nil {
		log.Error("source setup failed", "err", err)
		os.Exit(1)
	}

	var throttle <-chan time.Time
	if *rate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(*rate))
		defer ticker.Stop()
		throttle = ticker.C
	}

	sent := 0
	for p := range payloads {
		if throttle != nil {
			<-throttle
		}
		if err := s.send(p); err != nil {
			log.Error("send failed", "err", err)
			os.Exit(1)
		}
		sent++
		if *count > 0 && sent >= *count {
			break
		}
	}

	log.Info("done", "packets", sent)
}

func chunkSamples(chunkMS int) int {
	return sampleRate * chunkMS / 1000
}

// payload is one outbound packet body.
type payload struct {
	dataType uint8
	data     []byte
}

// sender stamps and writes packets over one connection.
type sender struct {
	conn     net.Conn
	framed   bool
	sensorID uint32
	seq      uint64
	start    time.Time
	buf      []byte
}

func (s *sender) send(p payload) error {
	pkt := sensor.Packet{
		SensorID:    s.sensorID,
		TimestampUS: uint64(time.Since(s.start).Microseconds()),
		DataType:    p.dataType,
		Seq:         s.seq,
		Payload:     p.data,
	}
	s.seq++

	var err error
	if s.framed {
		s.buf, err = sensor.AppendFrame(s.buf[:0], &pkt)
	} else {
		s.buf, err = sensor.AppendBinary(s.buf[:0], &pkt)
	}
	if err != nil {
		return err
	}
	_, err = s.conn.Write(s.buf)
	return err
}

// silenceSource emits zero-filled audio payloads.
func silenceSource(stop <-chan struct{}, samples int) <-chan payload {
	out := make(chan payload)
	body := make([]byte, samples*2)
	go func() {
		defer close(out)
		for {
			select {
			case <-stop:
				return
			case out <- payload{dataType: sensor.DataTypeAudio, data: body}:
			}
		}
	}()
	return out
}

// vectorSource emits synthetic sensor vectors sweeping the channels
// through plausible ranges, crossing the arousal activity threshold
// periodically.
func vectorSource(stop <-chan struct{}) <-chan payload {
	out := make(chan payload)
	go func() {
		defer close(out)
		step := 0
		buf := make([]byte, 0, sensor.VectorBytes)
		for {
			t := float64(step) / 50
			wave := float32(0.5 + 0.5*math.Sin(t))
			v := sensor.Vector{
				PeopleCount:  wave,
				KnownFace:    wave,
				IdleTime:     1 - wave,
				SoundEnergy:  wave,
				VoiceRate:    wave * 0.8,
				MotionEnergy: wave,
			}
			buf = v.AppendBinary(buf[:0])
			body := make([]byte, len(buf))
			copy(body, buf)
			select {
			case <-stop:
				return
			case out <- payload{dataType: sensor.DataTypeVector, data: body}:
				step++
			}
		}
	}()
	return out
}
