package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 任意结构的 JSON 列
type JSON map[string]interface{}

// Value 写库
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	body, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

// Scan 读库，兼容 sqlite 返回 string 与 postgres 返回 []byte
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = JSON{}
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
