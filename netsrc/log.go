package netsrc

import (
	"log"

	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btclog"
)

// logWriter adapts btcsuite's logger to the standard "log" package, so
// wire-level peer logging ends up in the same place as everything
// else this process logs.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	log.Print(string(p[24:])) // strip btclog's own timestamp prefix
	return len(p), nil
}

func init() {
	peerLog := btclog.NewBackend(logWriter{}).Logger("PEER")
	peerLog.SetLevel(btclog.LevelInfo)
	peer.UseLogger(peerLog)
}
