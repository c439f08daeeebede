package nodeapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Controller command names, sent as the "param" query value
const (
	CmdGetNodes   = "domocangetnodes"
	CmdAddNode    = "domocanaddnode"
	CmdUpdateNode = "domocanupdatenode"
	CmdRemoveNode = "domocanremovenode"
	CmdClearNodes = "domocanclearnodes"
	CmdGetVersion = "getversion"
)

// Status values of a command response
const (
	StatusOK  = "OK"
	StatusERR = "ERR"
)

// Node is one DomoCAN device registered on a controller
type Node struct {
	ID         string `json:"idx" yaml:"idx"`
	Name       string `json:"name" yaml:"name"`
	DeviceType int    `json:"devtype" yaml:"devtype"`
	BusID      string `json:"dcanid" yaml:"dcanid"`
}

// Response is the envelope every json.htm command answers with
type Response struct {
	Status  string       `json:"status"`
	Title   string       `json:"title,omitempty"`
	Message string       `json:"message,omitempty"`
	Result  []NodeRecord `json:"result,omitempty"`
}

// OK reports whether the controller accepted the command
func (r *Response) OK() bool {
	return r != nil && strings.EqualFold(r.Status, StatusOK)
}

// NodeRecord is one entry of a domocangetnodes result. The controller
// renders every column as a string; numbers are accepted too.
type NodeRecord struct {
	Idx            FlexString `json:"idx"`
	Name           FlexString `json:"Name"`
	DomoCANDevType FlexInt    `json:"DomoCANDevType"`
	DomoCANID      FlexString `json:"DomoCANID"`
}

// Node converts the record into a Node
func (r NodeRecord) Node() Node {
	return Node{
		ID:         string(r.Idx),
		Name:       string(r.Name),
		DeviceType: int(r.DomoCANDevType),
		BusID:      string(r.DomoCANID),
	}
}

// RecordFromNode builds the wire record the controller would send for n
func RecordFromNode(n Node) NodeRecord {
	return NodeRecord{
		Idx:            FlexString(n.ID),
		Name:           FlexString(n.Name),
		DomoCANDevType: FlexInt(n.DeviceType),
		DomoCANID:      FlexString(n.BusID),
	}
}

// FlexString decodes a JSON string, number or null into a string
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// MarshalJSON writes the value as a JSON string
func (s FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// FlexInt decodes a JSON number, numeric string or null into an int.
// Strings that are not numbers decode as 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			*i = 0
			return nil
		}
		*i = FlexInt(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*i = FlexInt(int(f))
	return nil
}

// MarshalJSON writes the value the way the controller does, as a string
func (i FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.Itoa(int(i)))
}
