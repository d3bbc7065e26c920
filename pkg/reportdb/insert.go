// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package reportdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/reportdb/helpers"
)

// InsertReport stores the report and returns the created entry.
func (rdb *ReportDB) InsertReport(ctx context.Context, rep *report.Report) (*ReportEntry, error) {
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return nil, ErrUnableToInsert{InsertedValue: rep.ImageID.String(), Err: fmt.Errorf("unable to serialize the report: %w", err)}
	}

	entry := ReportEntry{
		ID:         uuid.New().String(),
		ImageID:    rep.ImageID,
		SetVersion: rep.SetVersion,
		ReportJSON: reportJSON,
		TSInsert:   time.Now().UTC(),
	}

	values, columns, err := helpers.GetValuesAndColumns(&entry, nil)
	if err != nil {
		return nil, ErrUnableToInsert{InsertedValue: entry.ID, Err: fmt.Errorf("unable to gather column names: %w", err)}
	}

	query := "INSERT INTO `report_entries` (" + constructColumns("", columns) + ") VALUES (" + constructPlaceholders(len(columns)) + ")"
	if _, err := rdb.DB.ExecContext(ctx, query, values...); err != nil {
		if errors.Is(err, mysql.ErrInvalidConn) {
			// Lost connection; sqlx reconnects on the next use, so one
			// retry is enough.
			rdb.Logger.Warnf("lost the RDBMS connection, retrying the insert")
			_, err = rdb.DB.ExecContext(ctx, query, values...)
		}
		if err != nil {
			return nil, ErrUnableToInsert{InsertedValue: entry.ID, Err: err}
		}
	}

	if rdb.Cache != nil {
		rdb.Cache.Set(ctx, entry.ImageID, cacheRoleReportJSON, reportJSON)
	}
	return &entry, nil
}

func constructPlaceholders(cnt int) string {
	if cnt == 0 {
		return ""
	}
	return strings.Repeat("?, ", cnt-1) + "?"
}

func constructColumns(tableName string, columns []string) string {
	fullNames := make([]string, 0, len(columns))
	for _, column := range columns {
		if strings.Contains(column, "`") {
			panic(fmt.Sprintf("column <%s> contains a grave symbol", column))
		}
		var fullName string
		if tableName == "" {
			fullName = fmt.Sprintf("`%s`", column)
		} else {
			fullName = fmt.Sprintf("`%s`.`%s`", tableName, column)
		}
		fullNames = append(fullNames, fullName)
	}
	return strings.Join(fullNames, ", ")
}
