package feast

import (
	"context"
	"testing"

	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// 需要连接真实的 Feast Feature Server 才能运行，默认跳过。
func TestGrpcClientGetOnlineFeatures(t *testing.T) {
	t.Skip("requires a running Feast feature server")

	ctx := context.Background()
	client, err := NewGrpcClient("localhost", 6565, "rec")
	if err != nil {
		t.Fatalf("NewGrpcClient error = %v", err)
	}
	defer client.Close()

	resp, err := client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{"item_stats:ctr_7d"},
		EntityRows: []map[string]interface{}{{"item_id": int64(42)}},
	})
	if err != nil {
		t.Fatalf("GetOnlineFeatures error = %v", err)
	}
	if len(resp.FeatureVectors) != 1 {
		t.Errorf("feature vectors = %d, want 1", len(resp.FeatureVectors))
	}
}

func TestGetOnlineFeaturesValidation(t *testing.T) {
	c := &GrpcClient{Project: "rec"}

	if _, err := c.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		EntityRows: []map[string]interface{}{{"item_id": int64(1)}},
	}); err == nil {
		t.Error("empty features expected error, got nil")
	}

	if _, err := c.GetOnlineFeatures(context.Background(), &GetOnlineFeaturesRequest{
		Features: []string{"a:b"},
	}); err == nil {
		t.Error("empty entity rows expected error, got nil")
	}
}

func TestToSDKValue(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"string", "test"},
		{"int", 100},
		{"int64", int64(100)},
		{"float64", 3.14},
		{"bool", true},
		{"bytes", []byte("test")},
		{"fallback", struct{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if toSDKValue(tt.input) == nil {
				t.Error("toSDKValue returned nil")
			}
		})
	}
}

func TestFromSDKValue(t *testing.T) {
	tests := []struct {
		name  string
		input *feasttypes.Value
		want  interface{}
	}{
		{"nil", nil, nil},
		{"string", &feasttypes.Value{Val: &feasttypes.Value_StringVal{StringVal: "x"}}, "x"},
		{"int64 to float64", &feasttypes.Value{Val: &feasttypes.Value_Int64Val{Int64Val: 7}}, float64(7)},
		{"double", &feasttypes.Value{Val: &feasttypes.Value_DoubleVal{DoubleVal: 3.14}}, 3.14},
		{"bool true", &feasttypes.Value{Val: &feasttypes.Value_BoolVal{BoolVal: true}}, float64(1)},
		{"bytes to string", &feasttypes.Value{Val: &feasttypes.Value_BytesVal{BytesVal: []byte("b")}}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromSDKValue(tt.input); got != tt.want {
				t.Errorf("fromSDKValue = %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}
