package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"sitecms/internal/domain"
)

// MongoSink mirrors analytics into a MongoDB database, one collection per
// record type, for ad-hoc reporting outside the CMS.
type MongoSink struct {
	client   *mongo.Client
	sessions *mongo.Collection
	events   *mongo.Collection
}

// mongoURI resolves the connection string and database name. Host may be a
// full mongodb:// or mongodb+srv:// URI (with an optional <password>
// placeholder) or a bare hostname.
func mongoURI(conn domain.DatabaseConnection, password string) (string, string) {
	var uri string
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri = conn.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
	} else {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		if conn.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", conn.Username, password, conn.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
		}
	}

	dbName := conn.Database
	if dbName == "" {
		// Take the database from the URI path: user:pass@host/DB_NAME?params
		rest := uri
		for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
			rest = strings.TrimPrefix(rest, prefix)
		}
		if at := strings.Index(rest, "@"); at != -1 {
			rest = rest[at+1:]
		}
		if slash := strings.Index(rest, "/"); slash != -1 {
			path := rest[slash+1:]
			if q := strings.Index(path, "?"); q != -1 {
				path = path[:q]
			}
			dbName = path
		}
		if dbName == "" {
			dbName = "sitecms"
		}
	}
	return uri, dbName
}

// redact masks credentials in a URI for logging: the secret-store password
// wherever it appears and any password written inline in the user info.
func redact(uri, password string) string {
	if password != "" {
		uri = strings.ReplaceAll(uri, password, "***")
	}
	if u, err := url.Parse(uri); err == nil && u.Host != "" {
		return u.Redacted()
	}
	// Unparseable (e.g. a multi-host seed list): drop the user info entirely.
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.Index(rest, "@")
	if at == -1 {
		return uri
	}
	if slash := strings.Index(rest, "/"); slash != -1 && slash < at {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}

func NewMongoSink(ctx context.Context, conn domain.DatabaseConnection, password string, logger *zap.Logger) (*MongoSink, error) {
	uri, dbName := mongoURI(conn, password)
	logger.Info("connecting analytics mirror", zap.String("uri", redact(uri, password)), zap.String("database", dbName))

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	return &MongoSink{
		client:   client,
		sessions: db.Collection("user_sessions"),
		events:   db.Collection("page_events"),
	}, nil
}

func (m *MongoSink) RecordSession(ctx context.Context, s domain.VisitorSession) error {
	_, err := m.sessions.InsertOne(ctx, bson.M{
		"session_id":       s.SessionID,
		"user_agent":       s.UserAgent,
		"ip_address":       s.IPAddress,
		"page_url":         s.PageURL,
		"referrer":         s.Referrer,
		"duration_seconds": s.DurationSeconds,
		"is_bounce":        s.IsBounce,
		"started_at":       s.StartedAt,
	})
	if err != nil {
		return fmt.Errorf("mirror session: %w", err)
	}
	return nil
}

func (m *MongoSink) RecordSessionEnd(ctx context.Context, sessionID string, seconds int, endedAt time.Time) error {
	_, err := m.sessions.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"duration_seconds": seconds, "ended_at": endedAt, "is_bounce": false}},
	)
	if err != nil {
		return fmt.Errorf("mirror session end: %w", err)
	}
	return nil
}

func (m *MongoSink) RecordEvent(ctx context.Context, e domain.PageEvent) error {
	doc := bson.M{
		"_id":          e.ID,
		"session_id":   e.SessionID,
		"event_type":   string(e.EventType),
		"page_url":     e.PageURL,
		"element_id":   e.ElementID,
		"element_text": e.ElementText,
		"created_at":   e.CreatedAt,
	}
	if len(e.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(e.Metadata, &meta); err == nil {
			doc["metadata"] = meta
		}
	}
	if _, err := m.events.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mirror event: %w", err)
	}
	return nil
}

func (m *MongoSink) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
