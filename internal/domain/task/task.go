package task

import "encoding/json"

// Task is a unit of work carried on a queue stream named after TaskType.
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

func DefaultTaskValue(task any) ([]byte, error) {
	return json.Marshal(task)
}

func UnmarshalTask[T Task](data []byte) (T, error) {
	var t T
	err := json.Unmarshal(data, &t)
	return t, err
}
