package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/render"
	"github.com/annel0/voxel-engine/internal/world"
)

const (
	defaultNATSURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05"
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNATSURL, "NATS server URL")
		stream     = flag.String("stream", eventbus.DefaultStream, "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, inspect")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		runIDs     = flag.String("runs", "", "Run IDs filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 - until SIGINT)")
		dumpPath   = flag.String("file", "world.vxm", "Mesh dump for inspect")
	)
	flag.Parse()

	switch *command {
	case "tail":
		if err := tailEvents(*natsURL, *stream, &TailOptions{
			EventTypes: parseStringList(*eventTypes),
			RunIDs:     parseStringList(*runIDs),
			Limit:      *limit,
		}); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "inspect":
		m, err := render.ReadDumpFile(*dumpPath)
		if err != nil {
			log.Fatalf("❌ Inspect failed: %v", err)
		}
		printDump(os.Stdout, *dumpPath, m)

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, inspect")
		os.Exit(1)
	}
}

type TailOptions struct {
	EventTypes []string
	RunIDs     []string
	Limit      int
}

// tailEvents выводит новые события генератора до SIGINT или лимита
func tailEvents(url, stream string, opts *TailOptions) error {
	bus, err := eventbus.NewJetStreamBus(url, stream, 0)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer bus.Close()

	fmt.Printf("🎬 Tailing %s on %s (limit: %d)\n", stream, url, opts.Limit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan *eventbus.Envelope, 16)
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: opts.EventTypes, RunIDs: opts.RunIDs}, func(_ context.Context, ev *eventbus.Envelope) {
		select {
		case received <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	eventCount := 0
	for {
		select {
		case ev := <-received:
			printEvent(os.Stdout, ev)
			eventCount++
			if opts.Limit > 0 && eventCount >= opts.Limit {
				cancel()
			}
		case <-ctx.Done():
			fmt.Printf("\n📊 Total events: %d\n", eventCount)
			return nil
		}
	}
}

// printEvent выводит событие в читаемом формате
func printEvent(w io.Writer, ev *eventbus.Envelope) {
	fmt.Fprintf(w, "[%s] %s [%s] run=%s\n",
		ev.Timestamp.Local().Format(timeFormat),
		ev.Source,
		ev.EventType,
		ev.RunID)

	// Добавляем детали в зависимости от типа события
	switch ev.EventType {
	case eventbus.EventGenerationStarted:
		var p world.StartedEvent
		if ev.Decode(&p) == nil {
			fmt.Fprintf(w, "  Size: %v Origin: %v\n", p.Size, p.Origin)
		}
	case eventbus.EventGenerationCompleted:
		var p world.Stats
		if ev.Decode(&p) == nil {
			fmt.Fprintf(w, "  Chunks: %d Vertices: %d Indices: %d Took: %s\n",
				p.Chunks, p.Vertices, p.Indices, p.Duration.Round(time.Millisecond))
		}
	case eventbus.EventMeshPublished:
		var p world.PublishedEvent
		if ev.Decode(&p) == nil {
			fmt.Fprintf(w, "  Vertices: %d Indices: %d\n", p.Vertices, p.Indices)
		}
	}
}

// printDump выводит сводку по дампу меша
func printDump(w io.Writer, path string, m *mesh.Mesh) {
	fmt.Fprintf(w, "📦 %s\n", path)
	fmt.Fprintf(w, "  Vertices: %d (%d bytes)\n", len(m.Vertices), len(m.Vertices)*mesh.VertexStride)
	fmt.Fprintf(w, "  Indices: %d (%d bytes)\n", len(m.Indices), len(m.Indices)*mesh.IndexStride)
	fmt.Fprintf(w, "  Quads: %d\n", m.QuadCount())
	if bad := m.Validate(); bad >= 0 {
		fmt.Fprintf(w, "  ⚠️ Index %d out of range\n", bad)
	} else {
		fmt.Fprintln(w, "  Indices OK")
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
