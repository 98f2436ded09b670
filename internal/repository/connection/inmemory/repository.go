package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/repository/connection"
)

type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, participantId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "participantId", participantId)
	if r.connList[conn] != "" || r.idList[participantId] != nil {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = participantId
	r.idList[participantId] = conn

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	funcName := "connection.inmemory.RemoveByConn"
	r.mu.Lock()
	defer r.mu.Unlock()

	participantId, ok := r.connList[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, participantId)

	r.logger.Debug(funcName, "result", participantId)
	return nil
}

func (r *repo) RemoveByParticipantId(participantId string) error {
	funcName := "connection.inmemory.RemoveByParticipantId"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "participantId", participantId)
	conn, ok := r.idList[participantId]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}
	// zero-value conns registered by tests carry no network connection
	if conn.NetConn() != nil {
		conn.Close()
	}

	delete(r.connList, conn)
	delete(r.idList, participantId)

	return nil
}

func (r *repo) GetParticipantId(conn *websocket.Conn) (string, error) {
	funcName := "connection.inmemory.GetParticipantId"
	r.mu.RLock()
	defer r.mu.RUnlock()

	participantId, ok := r.connList[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	return participantId, nil
}

func (r *repo) GetConn(participantId string) (*websocket.Conn, error) {
	funcName := "connection.inmemory.GetConn"
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[participantId]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
