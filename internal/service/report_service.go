package service

import (
	"context"
	"fmt"

	"github.com/Xfluence-org/xfluence-app-sub002/internal/model/entity"
	"github.com/Xfluence-org/xfluence-app-sub002/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 活动报表导出服务
type ReportService struct {
	campaignRepo *repository.CampaignRepository
	taskRepo     *repository.TaskRepository
	workflowRepo *repository.WorkflowRepository
	activityRepo *repository.ActivityRepository
}

// NewReportService 创建报表服务
func NewReportService(
	campaignRepo *repository.CampaignRepository,
	taskRepo *repository.TaskRepository,
	workflowRepo *repository.WorkflowRepository,
	activityRepo *repository.ActivityRepository,
) *ReportService {
	return &ReportService{
		campaignRepo: campaignRepo,
		taskRepo:     taskRepo,
		workflowRepo: workflowRepo,
		activityRepo: activityRepo,
	}
}

var taskReportHeaders = []string{
	"任务标题", "达人", "任务状态", "进度",
	"需求阶段", "审核阶段", "发布阶段", "创建时间",
}

var activityReportHeaders = []string{
	"时间", "操作者类型", "动作", "描述",
}

// ExportCampaignReport 导出活动报表为xlsx：任务进度一张表，审计日志一张表
func (s *ReportService) ExportCampaignReport(ctx context.Context, campaignID string) (*excelize.File, string, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		return nil, "", fmt.Errorf("campaign not found: %w", err)
	}

	tasks, err := s.taskRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, "", fmt.Errorf("list tasks: %w", err)
	}

	f := excelize.NewFile()
	taskSheet := "Tasks"
	f.SetSheetName("Sheet1", taskSheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range taskReportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(taskSheet, cell, h)
		f.SetCellStyle(taskSheet, cell, cell, boldStyle)
	}

	for rowIdx, task := range tasks {
		row := rowIdx + 2
		f.SetCellValue(taskSheet, fmt.Sprintf("A%d", row), task.Title)
		if task.Influencer != nil {
			f.SetCellValue(taskSheet, fmt.Sprintf("B%d", row), task.Influencer.Name)
		}
		f.SetCellValue(taskSheet, fmt.Sprintf("C%d", row), task.Status)
		f.SetCellValue(taskSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("%d%%", task.Progress))

		states, err := s.workflowRepo.ListByTask(ctx, task.ID)
		if err == nil {
			statusByPhase := make(map[string]string, len(states))
			for _, st := range states {
				statusByPhase[st.Phase] = st.Status
			}
			f.SetCellValue(taskSheet, fmt.Sprintf("E%d", row), phaseCell(statusByPhase, entity.PhaseContentRequirement))
			f.SetCellValue(taskSheet, fmt.Sprintf("F%d", row), phaseCell(statusByPhase, entity.PhaseContentReview))
			f.SetCellValue(taskSheet, fmt.Sprintf("G%d", row), phaseCell(statusByPhase, entity.PhasePublishAnalytics))
		}

		f.SetCellValue(taskSheet, fmt.Sprintf("H%d", row), task.CreatedAt.Format("2006-01-02 15:04"))
	}

	colWidths := []float64{24, 14, 10, 8, 14, 14, 14, 18}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(taskSheet, col, col, w)
	}

	// 审计日志表
	activitySheet := "Activity"
	f.NewSheet(activitySheet)

	for i, h := range activityReportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(activitySheet, cell, h)
		f.SetCellStyle(activitySheet, cell, cell, boldStyle)
	}

	logs, _, err := s.activityRepo.ListByCampaign(ctx, campaignID, 1, 1000)
	if err != nil {
		return nil, "", fmt.Errorf("list activity logs: %w", err)
	}
	for rowIdx, log := range logs {
		row := rowIdx + 2
		f.SetCellValue(activitySheet, fmt.Sprintf("A%d", row), log.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(activitySheet, fmt.Sprintf("B%d", row), log.ActorType)
		f.SetCellValue(activitySheet, fmt.Sprintf("C%d", row), log.Action)
		f.SetCellValue(activitySheet, fmt.Sprintf("D%d", row), log.Description)
	}

	fileName := fmt.Sprintf("%s_report.xlsx", campaign.Code)
	return f, fileName, nil
}

func phaseCell(statusByPhase map[string]string, phase string) string {
	if status, ok := statusByPhase[phase]; ok {
		return status
	}
	return "-"
}
