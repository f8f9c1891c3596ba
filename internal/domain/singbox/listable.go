package singbox

import "encoding/json"

// Listable 單個元素序列化為標量，多個元素序列化為數組（與 sing-box 的寫法一致）
type Listable[T any] []T

func (l Listable[T]) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]T(l))
}

func (l *Listable[T]) UnmarshalJSON(data []byte) error {
	var many []T
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = Listable[T]{one}
	return nil
}
