package catalog

import "testing"

func TestTempoClusters(t *testing.T) {
	// Two well-separated BPM groups plus one track without BPM.
	tracks := []Track{
		{SpotifyID: "1", Name: "slow one", BPM: bpm(70)},
		{SpotifyID: "2", Name: "slow two", BPM: bpm(72)},
		{SpotifyID: "3", Name: "slow three", BPM: bpm(75)},
		{SpotifyID: "4", Name: "fast one", BPM: bpm(170)},
		{SpotifyID: "5", Name: "fast two", BPM: bpm(172)},
		{SpotifyID: "6", Name: "no bpm"},
	}

	got := TempoClusters(tracks, 2)
	if len(got) != 2 {
		t.Fatalf("TempoClusters() returned %d clusters, want 2", len(got))
	}

	// Sorted by center BPM.
	if got[0].CenterBPM >= got[1].CenterBPM {
		t.Errorf("clusters not sorted by center: %v then %v", got[0].CenterBPM, got[1].CenterBPM)
	}
	if got[0].TrackCount != 3 || got[1].TrackCount != 2 {
		t.Errorf("cluster sizes = %d/%d, want 3/2", got[0].TrackCount, got[1].TrackCount)
	}
	if got[0].MinBPM != 70 || got[0].MaxBPM != 75 {
		t.Errorf("slow cluster range = [%v, %v], want [70, 75]", got[0].MinBPM, got[0].MaxBPM)
	}

	total := 0
	for _, c := range got {
		total += c.TrackCount
	}
	if total != 5 {
		t.Errorf("clustered %d tracks, want 5 (track without BPM skipped)", total)
	}
}

func TestTempoClusters_TooFewTracks(t *testing.T) {
	tracks := []Track{
		{SpotifyID: "1", BPM: bpm(120)},
		{SpotifyID: "2"},
	}
	if got := TempoClusters(tracks, 3); got != nil {
		t.Errorf("TempoClusters() = %v, want nil with fewer usable tracks than clusters", got)
	}
}

func TestTempoClusters_DefaultK(t *testing.T) {
	tracks := []Track{
		{SpotifyID: "1", BPM: bpm(60)},
		{SpotifyID: "2", BPM: bpm(120)},
		{SpotifyID: "3", BPM: bpm(180)},
	}
	got := TempoClusters(tracks, 0)
	if len(got) != DefaultTempoClusterCount {
		t.Errorf("TempoClusters() with k=0 returned %d clusters, want %d", len(got), DefaultTempoClusterCount)
	}
}
