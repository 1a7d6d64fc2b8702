// Package pool реализует пул живых соединений с базой данных фиксированного
// размера. Соединение берется в монопольное пользование на время одной
// логической операции и обязательно возвращается на каждом пути выхода.
package pool

import (
	"context"
	"time"

	"github.com/alrdevelop/caserv/caerrors"
	"github.com/jmoiron/sqlx"
)

type Pool struct {
	conns        chan *sqlx.Conn
	leaseTimeout time.Duration
}

// New устанавливает size соединений заранее и кладет их в пул.
// leaseTimeout ограничивает ожидание свободного соединения в Lease.
func New(ctx context.Context, db *sqlx.DB, size int, leaseTimeout time.Duration) (*Pool, error) {
	if size <= 0 {
		size = 10
	}
	p := &Pool{
		conns:        make(chan *sqlx.Conn, size),
		leaseTimeout: leaseTimeout,
	}
	for i := 0; i < size; i++ {
		conn, err := db.Connx(ctx)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.conns <- conn
	}
	return p, nil
}

// Lease выдает соединение в монопольное пользование. Если все соединения
// заняты дольше leaseTimeout, возвращается ошибка ResourceExhausted,
// вызов не виснет бесконечно.
func (p *Pool) Lease(ctx context.Context) (*sqlx.Conn, error) {
	timer := time.NewTimer(p.leaseTimeout)
	defer timer.Stop()

	select {
	case conn := <-p.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, caerrors.ResourceExhaustedError("ожидание соединения прервано: %v", ctx.Err())
	case <-timer.C:
		return nil, caerrors.ResourceExhaustedError("пул соединений исчерпан, таймаут %s", p.leaseTimeout)
	}
}

// Release возвращает соединение в пул
func (p *Pool) Release(conn *sqlx.Conn) {
	if conn == nil {
		return
	}
	p.conns <- conn
}

// Close закрывает все соединения, находящиеся в пуле
func (p *Pool) Close() error {
	var firstErr error
	for {
		select {
		case conn := <-p.conns:
			if err := conn.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
