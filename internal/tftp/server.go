package tftp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	tftplib "github.com/pin/tftp/v3"
)

// Config is the configuration for the TFTP engine's underlying pin/tftp/v3
// server. Option negotiation (blksize, tsize, timeout) is handled by the
// library itself; Config only tunes its bounds.
type Config struct {
	// BlockSize is the negotiated blksize, bounded by RFC 2348 (8..65464);
	// pin/tftp/v3 defaults to 512 when a client requests none.
	BlockSize int
	// Timeout is the per-block ACK wait before retransmitting.
	Timeout time.Duration
	// Anticipate is how many blocks the server may send ahead of the
	// client's ACKs (window size), when the client supports it.
	Anticipate uint
	// SinglePort serves every transfer from the server's bound port
	// instead of a fresh ephemeral port per TID.
	SinglePort bool

	Log logr.Logger
}

// ServeMux routes RRQs; filenames are matched against patterns registered
// by the caller (typically one pattern for the flat TFTP root and one for
// Pi per-node serial-prefixed paths).
func (c Config) ListenAndServe(ctx context.Context, addr string, mux *ServeMux) error {
	server := tftplib.NewServer(mux.ServeTFTP, RejectWrite(c.Log))
	if c.Timeout > 0 {
		server.SetTimeout(c.Timeout)
	}
	if c.BlockSize > 0 {
		server.SetBlockSize(c.BlockSize)
	}
	if c.Anticipate > 0 {
		server.SetAnticipate(c.Anticipate)
	}
	server.SetHook(&transferStatsHook{log: c.Log})
	if c.SinglePort {
		server.EnableSinglePort()
	}

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if err := server.ListenAndServe(addr); err != nil {
		return fmt.Errorf("tftp server on %s: %w", addr, err)
	}
	return nil
}

// transferStatsHook implements tftp.Hook so every completed transfer is
// logged with its wire-level stats — the spec's TFTP-transfer-stats
// supplement.
type transferStatsHook struct {
	log logr.Logger
}

func (h *transferStatsHook) OnSuccess(stats tftplib.TransferStats) {
	h.log.Info("tftp transfer complete",
		"filename", stats.Filename,
		"remoteAddr", stats.RemoteAddr.String(),
		"duration", stats.Duration,
		"datagramsSent", stats.DatagramsSent,
		"datagramsAcked", stats.DatagramsAcked,
		"mode", stats.Mode,
		"tid", stats.Tid,
	)
}

func (h *transferStatsHook) OnFailure(stats tftplib.TransferStats, err error) {
	h.log.Error(err, "tftp transfer failed",
		"filename", stats.Filename,
		"remoteAddr", stats.RemoteAddr.String(),
		"duration", stats.Duration,
		"mode", stats.Mode,
		"tid", stats.Tid,
	)
}
