package models

import "testing"

func TestPodsResponseValidate(t *testing.T) {
	valid := &PodsResponse{
		Pods: []Pod{
			{Address: "1.2.3.4:9001", LastSeenTimestamp: 1000, StorageUsagePercent: 50},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	// Empty array is a legal (quiet) network
	empty := &PodsResponse{Pods: []Pod{}}
	if err := empty.Validate(); err != nil {
		t.Errorf("empty pod list rejected: %v", err)
	}

	missing := &PodsResponse{}
	if err := missing.Validate(); err == nil {
		t.Error("missing pods array should be rejected")
	}

	noAddr := &PodsResponse{Pods: []Pod{{Pubkey: "x"}}}
	if err := noAddr.Validate(); err == nil {
		t.Error("pod without address should be rejected")
	}

	badUsage := &PodsResponse{Pods: []Pod{{Address: "1.2.3.4:9001", StorageUsagePercent: 120}}}
	if err := badUsage.Validate(); err == nil {
		t.Error("storage usage over 100 should be rejected")
	}

	negUptime := &PodsResponse{Pods: []Pod{{Address: "1.2.3.4:9001", Uptime: -1}}}
	if err := negUptime.Validate(); err == nil {
		t.Error("negative uptime should be rejected")
	}
}

func TestPodCreditsResponseValidate(t *testing.T) {
	valid := &PodCreditsResponse{
		Status:      "success",
		PodsCredits: []PodCreditsEntry{{PodID: "x", Credits: 10}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	if err := (&PodCreditsResponse{PodsCredits: []PodCreditsEntry{}}).Validate(); err == nil {
		t.Error("missing status should be rejected")
	}
	if err := (&PodCreditsResponse{Status: "success"}).Validate(); err == nil {
		t.Error("missing pods_credits should be rejected")
	}
}
