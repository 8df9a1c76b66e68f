package cashcard

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// fakePostgres speaks just enough of the wire protocol to serve simple-protocol
// queries. Each statement is recorded and answered by respond.
type fakePostgres struct {
	respond func(sql string) []pgproto3.BackendMessage

	mu      sync.Mutex
	queries []string
}

const (
	oidBool = 16
	oidInt8 = 20
	oidText = 25
)

func startFakePostgres(t *testing.T, respond func(sql string) []pgproto3.BackendMessage) (*pgxpool.Pool, *fakePostgres) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fake := &fakePostgres{respond: respond}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go fake.serve(conn)
		}
	}()

	dsn := fmt.Sprintf("postgres://cards@%s/cashcards?sslmode=disable&default_query_exec_mode=simple_protocol", ln.Addr().String())
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
		ln.Close()
	})
	return pool, fake
}

func (f *fakePostgres) serve(conn net.Conn) {
	defer conn.Close()
	be := pgproto3.NewBackend(conn, conn)

	for {
		msg, err := be.ReceiveStartupMessage()
		if err != nil {
			return
		}
		if _, ok := msg.(*pgproto3.SSLRequest); ok {
			if _, err := conn.Write([]byte("N")); err != nil {
				return
			}
			continue
		}
		break
	}

	be.Send(&pgproto3.AuthenticationOk{})
	be.Send(&pgproto3.ParameterStatus{Name: "client_encoding", Value: "UTF8"})
	be.Send(&pgproto3.ParameterStatus{Name: "standard_conforming_strings", Value: "on"})
	be.Send(&pgproto3.ParameterStatus{Name: "server_version", Value: "16.0"})
	be.Send(&pgproto3.BackendKeyData{ProcessID: 1, SecretKey: 1})
	be.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	if err := be.Flush(); err != nil {
		return
	}

	for {
		msg, err := be.Receive()
		if err != nil {
			return
		}
		switch m := msg.(type) {
		case *pgproto3.Query:
			sql := strings.Join(strings.Fields(m.String), " ")
			if strings.HasPrefix(sql, "--") || sql == "" || sql == ";" {
				be.Send(&pgproto3.EmptyQueryResponse{})
			} else {
				f.mu.Lock()
				f.queries = append(f.queries, sql)
				f.mu.Unlock()
				for _, out := range f.respond(sql) {
					be.Send(out)
				}
			}
			be.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
			if err := be.Flush(); err != nil {
				return
			}
		case *pgproto3.Terminate:
			return
		}
	}
}

// Queries returns the statements received so far with whitespace collapsed.
func (f *fakePostgres) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func cardRows(cards ...CashCard) []pgproto3.BackendMessage {
	out := []pgproto3.BackendMessage{&pgproto3.RowDescription{Fields: []pgproto3.FieldDescription{
		{Name: []byte("id"), DataTypeOID: oidInt8, DataTypeSize: 8, TypeModifier: -1},
		{Name: []byte("amount"), DataTypeOID: oidText, DataTypeSize: -1, TypeModifier: -1},
		{Name: []byte("owner"), DataTypeOID: oidText, DataTypeSize: -1, TypeModifier: -1},
	}}}
	for _, c := range cards {
		out = append(out, &pgproto3.DataRow{Values: [][]byte{
			[]byte(fmt.Sprint(c.ID)),
			[]byte(c.Amount.String()),
			[]byte(c.Owner),
		}})
	}
	return append(out, &pgproto3.CommandComplete{CommandTag: []byte(fmt.Sprintf("SELECT %d", len(cards)))})
}

func boolRow(v bool) []pgproto3.BackendMessage {
	val := "f"
	if v {
		val = "t"
	}
	return []pgproto3.BackendMessage{
		&pgproto3.RowDescription{Fields: []pgproto3.FieldDescription{
			{Name: []byte("exists"), DataTypeOID: oidBool, DataTypeSize: 1, TypeModifier: -1},
		}},
		&pgproto3.DataRow{Values: [][]byte{[]byte(val)}},
		&pgproto3.CommandComplete{CommandTag: []byte("SELECT 1")},
	}
}

func commandTag(tag string) []pgproto3.BackendMessage {
	return []pgproto3.BackendMessage{&pgproto3.CommandComplete{CommandTag: []byte(tag)}}
}
