//go:build !linux

package ixws

import "os"

// pipeInterrupter implements interrupter on platforms without eventfd(2)
// using a self-pipe: writing a byte to the write end wakes anyone
// select(2)/poll(2)-ing on the read end.
type pipeInterrupter struct {
	r, w *os.File
}

func newInterrupter() (interrupter, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &pipeInterrupter{r: r, w: w}, nil
}

func (p *pipeInterrupter) fd() uintptr { return p.r.Fd() }

func (p *pipeInterrupter) interrupt() error {
	_, err := p.w.Write([]byte{1})
	return err
}

func (p *pipeInterrupter) clear() error {
	buf := make([]byte, 64)
	_, err := p.r.Read(buf)
	return err
}

func (p *pipeInterrupter) close() error {
	werr := p.w.Close()
	rerr := p.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
