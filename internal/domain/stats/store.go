// Package stats — накопительная статистика использования по администраторам.
// Хранится в bbolt: один бакет, ключ — десятичный ID администратора, значение —
// JSON-снимок счётчиков. Статистика не участвует в принятии решений и ведётся
// best-effort: ошибка записи логируется вызывающим кодом и не прерывает работу.
package stats

import (
	"encoding/json"
	"strconv"
	"time"

	"telegram-copier/internal/domain/copyjob"
	"telegram-copier/internal/infra/storage"

	"github.com/go-faster/errors"

	bolt "go.etcd.io/bbolt"
)

var bucketAdmins = []byte("admin_stats")

// AdminStats — накопленные показатели одного администратора.
type AdminStats struct {
	JobsRun         int       `json:"jobs_run"`
	JobsCancelled   int       `json:"jobs_cancelled"`
	MessagesCopied  int       `json:"messages_copied"`
	MessagesFailed  int       `json:"messages_failed"`
	MessagesSkipped int       `json:"messages_skipped"`
	LastRunAt       time.Time `json:"last_run_at"`
}

// Store — обёртка над bbolt-базой статистики.
type Store struct {
	db *bolt.DB
}

// Open открывает (или создаёт) базу статистики по указанному пути.
// Таймаут защищает от зависания на файле, захваченном другим процессом.
func Open(path string) (*Store, error) {
	if err := storage.EnsureDir(path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open stats db")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAdmins)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init stats bucket")
	}
	return &Store{db: db}, nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordJob прибавляет итог завершённого задания к статистике администратора.
func (s *Store) RecordJob(adminID int64, res copyjob.Result) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAdmins)
		key := []byte(strconv.FormatInt(adminID, 10))

		var cur AdminStats
		if raw := bucket.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &cur); err != nil {
				// Повреждённая запись перезаписывается с нуля.
				cur = AdminStats{}
			}
		}

		cur.JobsRun++
		if res.Status == copyjob.StatusCancelled {
			cur.JobsCancelled++
		}
		cur.MessagesCopied += res.Counts.Succeeded
		cur.MessagesFailed += res.Counts.Failed
		cur.MessagesSkipped += res.Counts.Skipped
		cur.LastRunAt = time.Now().UTC()

		raw, err := json.Marshal(cur)
		if err != nil {
			return errors.Wrap(err, "marshal admin stats")
		}
		return bucket.Put(key, raw)
	})
}

// Get возвращает статистику администратора. Отсутствие записи — нулевой снимок.
func (s *Store) Get(adminID int64) (AdminStats, error) {
	var out AdminStats
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketAdmins).Get([]byte(strconv.FormatInt(adminID, 10)))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &out)
	})
	if err != nil {
		return AdminStats{}, errors.Wrap(err, "read admin stats")
	}
	return out, nil
}
