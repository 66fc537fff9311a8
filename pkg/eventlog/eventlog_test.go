package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tracy/pkg/tracer"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(name string) (uint64, bool) { return 0, false }
func (fakeResolver) Name(nr uint64) string              { return "getpid" }

func TestSQLiteLoggerRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")

	l, err := Open(DefaultConfig(dbPath), fakeResolver{})
	require.NoError(t, err)
	defer l.Close()

	tr := &tracer.Tracee{}
	l.LogEntry(&tracer.Event{Tracee: tr, SyscallNr: 39, Entry: true})
	l.LogExit(&tracer.Event{Tracee: tr, SyscallNr: 39, Entry: false, Return: 1234})

	var count int
	row := l.db.QueryRow(`SELECT COUNT(*) FROM events`)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 2, count)
}

func TestSQLiteLoggerReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")

	l1, err := Open(DefaultConfig(dbPath), fakeResolver{})
	require.NoError(t, err)
	l1.Close()

	l2, err := Open(DefaultConfig(dbPath), fakeResolver{})
	require.NoError(t, err)
	defer l2.Close()

	var name string
	err = l2.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='events'`).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "events", name)
}
