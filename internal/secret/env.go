package secret

import (
	"fmt"
	"os"
	"strings"
)

// EnvStore reads secrets from SITECMS_SECRET_<KEY> style variables. It is
// read-only; values are managed by the deployment.
type EnvStore struct {
	Prefix string
}

func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{Prefix: prefix}
}

func (e *EnvStore) name(key string) string {
	return e.Prefix + strings.ToUpper(key)
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.name(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Set(key string, _ []byte) error {
	return fmt.Errorf("env secret %s is read-only", e.name(key))
}

// Delete is a no-op: the environment is owned by the deployment.
func (e *EnvStore) Delete(string) error {
	return nil
}
