package watch

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/storage"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.yaml")
	content := `
servers:
  - host: 192.0.2.10
    port: 7788
  - host: ut.example.com
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write watchlist: %v", err)
	}

	list, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(list.Servers) != 2 {
		t.Fatalf("servers=%d, want=2", len(list.Servers))
	}
	if list.Servers[0].Port != 7788 {
		t.Fatalf("port=%d, want=7788", list.Servers[0].Port)
	}
	if list.Servers[1].Port != 7778 {
		t.Fatalf("default port=%d, want=7778", list.Servers[1].Port)
	}
}

func TestLoadRejectsMissingHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.yaml")
	if err := os.WriteFile(path, []byte("servers:\n  - port: 7778\n"), 0600); err != nil {
		t.Fatalf("write watchlist: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for entry without host")
	}
}

func TestSweepStoresObservations(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 1024)
		_, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		_, _ = pc.WriteTo([]byte(`\hostname\Watched\mapname\CTF-Face\numplayers\0\final\`), addr)
	}()

	port := pc.LocalAddr().(*net.UDPAddr).Port

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Query.Timeout = 2 * time.Second
	cfg.Watch.Interval = time.Hour
	cfg.Watch.Workers = 2

	list := &List{Servers: []Entry{{Host: "127.0.0.1", Port: port}}}
	poller := New(list, store, nil, cfg)
	poller.sweep()

	record, err := store.GetServer("127.0.0.1", port)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil {
		t.Fatal("observation was not stored")
	}
	if record.ServerName != "Watched" || record.MapName != "CTF-Face" {
		t.Fatalf("record = %+v", record)
	}
}
