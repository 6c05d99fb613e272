package importer

import "io"

// splitChunkBuffer bounds how far the faster consumer may run ahead of the
// slower one before the producer blocks.
const splitChunkBuffer = 16

type chunk struct {
	data []byte
	err  error
}

// Split copies r into two independent readers. A single producer goroutine
// reads r once and fans each chunk out to both sides; each side sees the
// same bytes and the same terminal error. The producer blocks when either
// consumer falls splitChunkBuffer chunks behind, so memory stays bounded
// without either side dictating the other's pace.
func Split(r io.Reader) (io.Reader, io.Reader) {
	a := make(chan chunk, splitChunkBuffer)
	b := make(chan chunk, splitChunkBuffer)

	go func() {
		defer close(a)
		defer close(b)

		buf := make([]byte, 32*1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				a <- chunk{data: data}
				b <- chunk{data: data}
			}
			if err != nil {
				if err != io.EOF {
					a <- chunk{err: err}
					b <- chunk{err: err}
				}
				return
			}
		}
	}()

	return &chunkReader{ch: a}, &chunkReader{ch: b}
}

type chunkReader struct {
	ch   chan chunk
	rest []byte
	err  error
}

func (cr *chunkReader) Read(p []byte) (int, error) {
	for len(cr.rest) == 0 {
		if cr.err != nil {
			return 0, cr.err
		}
		c, ok := <-cr.ch
		if !ok {
			cr.err = io.EOF
			return 0, io.EOF
		}
		if c.err != nil {
			cr.err = c.err
			return 0, cr.err
		}
		cr.rest = c.data
	}

	n := copy(p, cr.rest)
	cr.rest = cr.rest[n:]
	return n, nil
}
