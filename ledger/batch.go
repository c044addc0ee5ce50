package ledger

import (
	"time"

	"isnad/attestation"
)

// VerificationResult is the per-attestation outcome of a batch verify pass,
// grounded on original_source/src/isnad/batch.py's VerificationResult.
type VerificationResult struct {
	AttestationID string        `json:"attestation_id"`
	Subject       string        `json:"subject"`
	Witness       string        `json:"witness"`
	Task          string        `json:"task"`
	Valid         bool          `json:"valid"`
	Error         string        `json:"error,omitempty"`
	VerifyTime    time.Duration `json:"verify_time_ns"`
}

// BatchReport summarizes a batch verification or admission pass.
type BatchReport struct {
	Total   int                  `json:"total"`
	Passed  int                  `json:"passed"`
	Failed  int                  `json:"failed"`
	Results []VerificationResult `json:"results"`
	Elapsed time.Duration        `json:"elapsed_ns"`
}

func (r *BatchReport) PassRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total)
}

func (r *BatchReport) FailedResults() []VerificationResult {
	out := make([]VerificationResult, 0)
	for _, res := range r.Results {
		if !res.Valid {
			out = append(out, res)
		}
	}
	return out
}

// VerifyBatch verifies a set of attestations without admitting them,
// producing a structured pass/fail report. If failFast is true, stops at
// the first failure.
func VerifyBatch(atts []*attestation.Attestation, failFast bool) *BatchReport {
	report := &BatchReport{Total: len(atts)}
	start := time.Now()
	for _, att := range atts {
		t0 := time.Now()
		errMsg := ""
		valid := true
		if err := att.Verify(); err != nil {
			valid = false
			errMsg = err.Error()
		}
		report.Results = append(report.Results, VerificationResult{
			AttestationID: att.AttestationID,
			Subject:       att.Subject,
			Witness:       att.Witness,
			Task:          att.Task,
			Valid:         valid,
			Error:         errMsg,
			VerifyTime:    time.Since(t0),
		})
		if valid {
			report.Passed++
		} else {
			report.Failed++
			if failFast {
				break
			}
		}
	}
	report.Elapsed = time.Since(start)
	return report
}

// AddBatch verifies and admits a set of attestations in one call,
// supplying the REST "attestations batch create" resource named in spec §6.
func (l *Ledger) AddBatch(atts []*attestation.Attestation) *BatchReport {
	report := &BatchReport{Total: len(atts)}
	start := time.Now()
	for _, att := range atts {
		t0 := time.Now()
		admitted, err := l.Add(att)
		valid := admitted && err == nil
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		} else if !admitted {
			errMsg = "rejected or duplicate"
		}
		report.Results = append(report.Results, VerificationResult{
			AttestationID: att.AttestationID,
			Subject:       att.Subject,
			Witness:       att.Witness,
			Task:          att.Task,
			Valid:         valid,
			Error:         errMsg,
			VerifyTime:    time.Since(t0),
		})
		if valid {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	report.Elapsed = time.Since(start)
	return report
}
