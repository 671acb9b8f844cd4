package analysis

import (
	"testing"

	"github.com/hostsurvey/hostsurvey/model"
)

func TestScoreProcessesRanksKernelThreadsLow(t *testing.T) {
	manifest := &model.Manifest{
		Processes: []model.ProcessInfo{
			{PID: 2, Command: "kworker/0:1", User: "root"},
			{PID: 1200, Command: "nginx", FullCmdline: "nginx: master process", User: "www-data"},
		},
	}

	scores := ScoreProcesses(manifest)

	if scores[2].IsBusinessProcess {
		t.Error("kworker thread should not be scored as a business process")
	}
	if !scores[1200].IsBusinessProcess {
		t.Error("nginx should be scored as a business process")
	}
	if scores[1200].Score <= scores[2].Score {
		t.Errorf("nginx score %.2f should exceed kworker score %.2f", scores[1200].Score, scores[2].Score)
	}
}

func TestScoreProcessesBoostsPortListenersAndServiceManaged(t *testing.T) {
	manifest := &model.Manifest{
		Processes: []model.ProcessInfo{
			{PID: 500, Command: "myapp", User: "appuser"},
		},
		Ports: []model.PortInfo{
			{LocalPort: 8080, PID: model.U32Ptr(500)},
		},
		Services: []model.ServiceInfo{
			{Name: "myapp.service", MainPID: model.U32Ptr(500)},
		},
	}

	scores := ScoreProcesses(manifest)
	score := scores[500]
	if !score.IsBusinessProcess {
		t.Error("process with a listening port and owning service should be a business process")
	}
	if len(score.Reasons) < 2 {
		t.Errorf("expected multiple reasons, got %v", score.Reasons)
	}
}

func TestScoreServicesPenalizesSystemServices(t *testing.T) {
	manifest := &model.Manifest{
		Services: []model.ServiceInfo{
			{Name: "systemd-journald.service"},
			{Name: "myapp.service", WorkingDirectory: model.StrPtr("/opt/myapp")},
		},
	}

	scores := ScoreServices(manifest)
	if scores["systemd-journald.service"] >= scores["myapp.service"] {
		t.Errorf("system service score %.2f should be lower than app service score %.2f",
			scores["systemd-journald.service"], scores["myapp.service"])
	}
}
