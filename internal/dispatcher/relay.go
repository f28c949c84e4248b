package dispatcher

import (
	"io"
	"net"
	"sync"
)

// relay copies bytes between client and upstream in both directions until
// either direction reaches end of stream or fails. The first direction to
// finish closes both connections, which unblocks the other copy. relay
// returns once both copies have stopped.
func relay(client, upstream net.Conn) {
	var (
		once sync.Once
		wg   sync.WaitGroup
	)
	closeBoth := func() {
		once.Do(func() {
			_ = client.Close()   // best effort
			_ = upstream.Close() // best effort
		})
	}

	transfer := func(dst io.Writer, src io.Reader) {
		defer wg.Done()
		defer closeBoth()
		_, _ = io.Copy(dst, src)
	}

	wg.Add(2)
	go transfer(upstream, client)
	go transfer(client, upstream)
	wg.Wait()
}
