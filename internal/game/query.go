// Package game wires the status query protocol to the application
// configuration.
package game

import (
	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/protocol"
)

// QueryServer performs one status exchange with a game server and decodes the
// response. With raw set the result keeps the plain key/value mapping instead
// of extracting player records.
func QueryServer(host string, port int, raw bool, options config.Query) (*protocol.Status, error) {
	client := protocol.Client{
		Timeout:    options.Timeout,
		BufferSize: options.BufferSize,
	}

	data, err := client.Query(host, port)
	if err != nil {
		return nil, err
	}

	return protocol.Decode(data, raw)
}
